package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/jobs-tracker/internal/pipeline"
	"github.com/joseph-ayodele/jobs-tracker/internal/tracker"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "run <job-url>",
		Short: "Process a single job posting URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			rec := a.runner.Run(cmd.Context(), args[0])
			out := cmd.OutOrStdout()

			if asJSON {
				rec.RawHTML = nil
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(rec); err != nil {
					return err
				}
			} else if rec.Succeeded() {
				d := rec.FinalDetails
				fmt.Fprintf(out, "Saved %q at %s (row %s)\n", d.JobTitle, d.Company, *rec.TrackerID)
			} else {
				fmt.Fprintf(out, "Failed: %s\n", rec.FirstError())
			}

			if !rec.Succeeded() {
				if errors.Is(pipeline.SaveError(rec), tracker.ErrMissingCredentials) {
					fmt.Fprintln(os.Stderr, "hint: set TRACKER_CREDENTIALS for the configured tracker backend")
				}
				return fmt.Errorf("job not saved: %s", rec.FirstError())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full record as JSON")
	return cmd
}
