package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/jobs-tracker/internal/ingest"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var (
		concurrency int
		scan        bool
		debounce    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch <dir>...",
		Short: "Run a batch for every URL list (.txt, .urls) dropped into a directory",
		Long: "Watch directories for URL list files. Each list is processed as one batch; results are " +
			"written to <file>.results.csv and the list is renamed to <file>.done.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			inbox := ingest.NewInbox(a.coordinator, concurrency, a.logger)
			return inbox.Watch(ctx, ingest.WatchConfig{
				Roots:       args,
				InitialScan: scan,
				Debounce:    debounce,
			})
		},
	}
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0, "max concurrent jobs per list (default BATCH_MAX_CONCURRENCY)")
	cmd.Flags().BoolVar(&scan, "scan", true, "process lists already in the directory at startup")
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "wait for writes to settle before reading a list")
	return cmd
}
