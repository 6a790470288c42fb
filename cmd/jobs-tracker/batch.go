package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/jobs-tracker/internal/batch"
	"github.com/joseph-ayodele/jobs-tracker/internal/export"
)

const autoReportName = "auto"

func newBatchCmd(opts *rootOptions) *cobra.Command {
	var (
		file        string
		concurrency int
		reportCSV   string
		reportXLSX  string
	)
	cmd := &cobra.Command{
		Use:   "batch [job-url...]",
		Short: "Process many job posting URLs concurrently",
		Long: "Process job URLs given as arguments and/or read from --file (one per line, # comments allowed; " +
			"use - for stdin). Prints a results table and optionally writes CSV/XLSX reports.",
		RunE: func(cmd *cobra.Command, args []string) error {
			urls := append([]string(nil), args...)
			if file != "" {
				fromFile, err := readURLFile(file, cmd.InOrStdin())
				if err != nil {
					return err
				}
				urls = append(urls, fromFile...)
			}
			if len(urls) == 0 {
				return fmt.Errorf("no job URLs given; pass them as arguments or with --file")
			}

			out := cmd.OutOrStdout()
			progress := func(done, total int, o batch.Outcome) {
				fmt.Fprintf(out, "[%d/%d] %-7s %s\n", done, total, o.Status, o.URL)
			}
			a, err := newApp(opts, batch.WithProgress(progress))
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Fprintf(out, "Processing %s jobs...\n", humanize.Comma(int64(len(urls))))
			res := a.coordinator.Run(cmd.Context(), urls, concurrency)

			renderResults(out, res)
			now := time.Now()
			if err := writeReport(reportCSV, now, "csv", out, func(w io.Writer) error { return export.WriteCSV(w, res) }); err != nil {
				return err
			}
			if err := writeReport(reportXLSX, now, "xlsx", out, func(w io.Writer) error {
				data, err := export.WriteXLSX(res)
				if err != nil {
					return err
				}
				_, err = w.Write(data)
				return err
			}); err != nil {
				return err
			}

			if res.Summary.Successful == 0 && res.Summary.Total > 0 {
				return fmt.Errorf("no jobs were saved")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "file with one job URL per line (- for stdin)")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0, "max jobs in flight (default BATCH_MAX_CONCURRENCY)")
	cmd.Flags().StringVar(&reportCSV, "report-csv", "", "write a CSV results report to this path")
	cmd.Flags().StringVar(&reportXLSX, "report-xlsx", "", "write an XLSX results report to this path")
	cmd.Flags().Lookup("report-csv").NoOptDefVal = autoReportName
	cmd.Flags().Lookup("report-xlsx").NoOptDefVal = autoReportName
	return cmd
}

func readURLFile(path string, stdin io.Reader) ([]string, error) {
	if path == "-" {
		return batch.ParseURLList(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open url list: %w", err)
	}
	defer f.Close()
	return batch.ParseURLList(f)
}

func renderResults(out io.Writer, res batch.Result) {
	table := tablewriter.NewWriter(out)
	table.SetHeader(export.ReportHeaders)
	table.SetAutoWrapText(false)
	table.AppendBulk(export.ReportRows(res))
	table.Render()

	s := res.Summary
	fmt.Fprintf(out, "Successful: %s  Failed: %s  Total: %s  Elapsed: %s  Throughput: %s jobs/s\n",
		humanize.Comma(int64(s.Successful)),
		humanize.Comma(int64(s.Failed)),
		humanize.Comma(int64(s.Total)),
		s.Elapsed.Round(time.Millisecond),
		humanize.FtoaWithDigits(s.Throughput, 2),
	)
}

func writeReport(path string, now time.Time, ext string, out io.Writer, write func(io.Writer) error) error {
	if path == "" {
		return nil
	}
	if path == autoReportName {
		path = export.ReportName(now, ext)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Report written to %s\n", path)
	return nil
}
