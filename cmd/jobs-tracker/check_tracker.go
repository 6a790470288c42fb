package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/jobs-tracker/internal/common"
	"github.com/joseph-ayodele/jobs-tracker/internal/tracker"
)

// newCheckTrackerCmd opens the configured tracker store without writing to it.
func newCheckTrackerCmd(opts *rootOptions) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "check-tracker",
		Short: "Verify the configured tracker store can be opened",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, closer := loadConfig(opts)
			defer closer.Close()

			backend, err := tracker.NewBackend(cfg.Tracker.Backend, cfg.Tracker.CreateIfMissing, logger)
			if err != nil {
				return common.NewAppError(common.CodeConfig, "tracker backend", err)
			}
			if backend.RequiresCredentials && cfg.Tracker.Credentials == "" {
				return fmt.Errorf("%w: set TRACKER_CREDENTIALS for %s", tracker.ErrMissingCredentials, backend.Name)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			sheet, err := backend.Opener.Open(ctx, cfg.Tracker.StoreID, cfg.Tracker.Credentials)
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "tracker %s (%s): FAIL\n", backend.Name, cfg.Tracker.StoreID)
				return err
			}
			defer sheet.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "tracker %s (%s): OK\n", backend.Name, cfg.Tracker.StoreID)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "how long to wait for the store")
	return cmd
}
