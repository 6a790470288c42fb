package tracker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/jobs-tracker/constants"
)

// XLSXSheetName is the worksheet rows are appended to.
const XLSXSheetName = "Job Tracker"

// XLSXOpener opens a local workbook; storeID is its path. Credentials are ignored.
type XLSXOpener struct {
	CreateIfMissing bool
	Logger          *slog.Logger
}

func (o XLSXOpener) Open(_ context.Context, path, _ string) (Sheet, error) {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}

	f, err := excelize.OpenFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if !o.CreateIfMissing {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		f, err = newWorkbook(path)
		if err != nil {
			return nil, err
		}
		logger.Info("tracker.xlsx.created", "path", path)
	case err != nil:
		return nil, fmt.Errorf("%w: open %s: %w", ErrNotFound, path, err)
	}

	rows, err := ensureHeader(f, path)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &xlsxSheet{f: f, path: path, rows: rows}, nil
}

func newWorkbook(path string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", XLSXSheetName); err != nil {
		return nil, err
	}
	if err := writeHeader(f); err != nil {
		return nil, err
	}
	if err := f.SaveAs(path); err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", ErrWrite, path, err)
	}
	return f, nil
}

// ensureHeader makes sure the tracker worksheet exists with a header row and
// returns the number of populated rows.
func ensureHeader(f *excelize.File, path string) (int, error) {
	if idx, _ := f.GetSheetIndex(XLSXSheetName); idx == -1 {
		if _, err := f.NewSheet(XLSXSheetName); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrWrite, err)
		}
	}
	rows, err := f.GetRows(XLSXSheetName)
	if err != nil {
		return 0, fmt.Errorf("%w: read %s: %w", ErrNotFound, path, err)
	}
	if len(rows) > 0 {
		return len(rows), nil
	}
	if err := writeHeader(f); err != nil {
		return 0, err
	}
	if err := f.Save(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return 1, nil
}

func writeHeader(f *excelize.File) error {
	header := append([]string(nil), constants.TrackerColumns...)
	if err := f.SetSheetRow(XLSXSheetName, "A1", &header); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	_ = f.SetColWidth(XLSXSheetName, "A", "C", 28)
	_ = f.SetColWidth(XLSXSheetName, "H", "H", 48)
	_ = f.SetColWidth(XLSXSheetName, "L", "L", 60)
	return nil
}

type xlsxSheet struct {
	mu   sync.Mutex
	f    *excelize.File
	path string
	rows int
}

func (s *xlsxSheet) AppendRow(ctx context.Context, values []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return 0, ErrClosed
	}

	next := s.rows + 1
	cell, err := excelize.CoordinatesToCellName(1, next)
	if err != nil {
		return 0, writeErr(err)
	}
	row := append([]string(nil), values...)
	if err := s.f.SetSheetRow(XLSXSheetName, cell, &row); err != nil {
		return 0, writeErr(err)
	}
	if err := s.f.Save(); err != nil {
		_ = s.f.RemoveRow(XLSXSheetName, next)
		return 0, writeErr(err)
	}
	s.rows = next
	return s.rows, nil
}

func (s *xlsxSheet) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}
