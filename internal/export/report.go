// Package export renders batch results as downloadable reports.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/jobs-tracker/constants"
	"github.com/joseph-ayodele/jobs-tracker/internal/batch"
)

// ReportHeaders is the column layout shared by the CSV and XLSX reports.
var ReportHeaders = []string{"Status", "Job Title", "Company", "Location", "Row", "URL"}

const (
	reportSheet = "Results"
	placeholder = "-"
)

// ReportName returns job_tracker_results_YYYYMMDD_HHMMSS.<ext>.
func ReportName(now time.Time, ext string) string {
	return fmt.Sprintf("job_tracker_results_%s.%s", now.Format("20060102_150405"), ext)
}

// ReportRows flattens outcomes into report rows, in input order.
func ReportRows(res batch.Result) [][]string {
	rows := make([][]string, 0, len(res.Outcomes))
	for _, o := range res.Outcomes {
		if o.Status == constants.OutcomeSuccess && o.Details != nil {
			rows = append(rows, []string{"Success", o.Details.JobTitle, o.Details.Company, o.Details.Location, o.TrackerID, o.URL})
			continue
		}
		status := "Failed"
		if o.Status == constants.OutcomeError {
			status = "Error"
		}
		rows = append(rows, []string{status, placeholder, placeholder, placeholder, placeholder, o.URL})
	}
	return rows
}

// WriteCSV writes the report with a header row.
func WriteCSV(w io.Writer, res batch.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ReportHeaders); err != nil {
		return err
	}
	if err := cw.WriteAll(ReportRows(res)); err != nil {
		return fmt.Errorf("csv write: %w", err)
	}
	return nil
}

// WriteXLSX returns the report as an XLSX workbook.
func WriteXLSX(res batch.Result) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return nil, err
	}

	header := append([]string(nil), ReportHeaders...)
	if err := f.SetSheetRow(reportSheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, row := range ReportRows(res) {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		r := row
		if err := f.SetSheetRow(reportSheet, cell, &r); err != nil {
			return nil, err
		}
	}

	_ = f.SetColWidth(reportSheet, "A", "A", 10) // status
	_ = f.SetColWidth(reportSheet, "B", "D", 28)
	_ = f.SetColWidth(reportSheet, "E", "E", 8) // row
	_ = f.SetColWidth(reportSheet, "F", "F", 60)

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
