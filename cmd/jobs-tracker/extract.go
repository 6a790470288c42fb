package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/jobs-tracker/internal/entity"
)

// newExtractCmd previews a posting without writing to the tracker. The input
// is a URL or a saved HTML file; --url keys the site cleanup rules for files.
func newExtractCmd(opts *rootOptions) *cobra.Command {
	var (
		times  int
		jobURL string
	)
	cmd := &cobra.Command{
		Use:   "extract <job-url|file.html>",
		Short: "Show what would be saved for a posting, without writing to the tracker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			seed, err := previewRecord(args[0], jobURL)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			for i := 0; i < times; i++ {
				rec := a.runner.Preview(cmd.Context(), seed.Clone())
				rec.RawHTML = nil
				if err := enc.Encode(rec); err != nil {
					return err
				}
				if rec.ErrorMessage != nil {
					return fmt.Errorf("extract failed: %s", rec.FirstError())
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&times, "times", "n", 1, "repeat the extraction n times to compare model output")
	cmd.Flags().StringVar(&jobURL, "url", "", "original posting URL when the input is a local file")
	return cmd
}

func previewRecord(target, jobURL string) (entity.Record, error) {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return entity.NewRecord(target), nil
	}
	data, err := os.ReadFile(target)
	if err != nil {
		return entity.Record{}, fmt.Errorf("read html: %w", err)
	}
	if jobURL == "" {
		jobURL = "file://" + target
	}
	rec := entity.NewRecord(jobURL)
	html := string(data)
	rec.RawHTML = &html
	return rec, nil
}
