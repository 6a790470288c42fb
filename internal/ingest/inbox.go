package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joseph-ayodele/jobs-tracker/internal/batch"
	"github.com/joseph-ayodele/jobs-tracker/internal/export"
)

const (
	DoneSuffix   = ".done"
	ReportSuffix = ".results.csv"
)

// Inbox turns URL list files into batch runs. After a file is processed its
// results are written next to it as <file>.results.csv and the list is renamed
// to <file>.done so it is not picked up again.
type Inbox struct {
	Coordinator    *batch.Coordinator
	MaxConcurrency int
	Logger         *slog.Logger
}

func NewInbox(c *batch.Coordinator, maxConcurrency int, logger *slog.Logger) *Inbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inbox{Coordinator: c, MaxConcurrency: maxConcurrency, Logger: logger}
}

// Process runs one URL list file.
func (in *Inbox) Process(ctx context.Context, path string) (batch.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return batch.Result{}, fmt.Errorf("open url list: %w", err)
	}
	urls, err := batch.ParseURLList(f)
	_ = f.Close()
	if err != nil {
		return batch.Result{}, fmt.Errorf("read url list: %w", err)
	}

	log := in.Logger.With("file", path, "urls", len(urls))
	log.Info("ingest.file.start")
	res := in.Coordinator.Run(ctx, urls, in.MaxConcurrency)

	if err := writeReport(path+ReportSuffix, res); err != nil {
		return res, err
	}
	if err := os.Rename(path, path+DoneSuffix); err != nil {
		return res, fmt.Errorf("mark url list done: %w", err)
	}
	log.Info("ingest.file.done",
		"batch_id", res.BatchID,
		"success", res.Summary.Successful,
		"failed", res.Summary.Failed,
	)
	return res, nil
}

// Watch processes list files under dir until ctx is done. Per-file failures
// are logged and do not stop the loop.
func (in *Inbox) Watch(ctx context.Context, cfg WatchConfig) error {
	events, errs, err := StartWatcher(ctx, cfg, in.Logger)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case path, ok := <-events:
			if !ok {
				return nil
			}
			if strings.HasSuffix(path, DoneSuffix) {
				continue
			}
			if _, err := os.Stat(path); err != nil {
				// renamed away by an earlier pass
				continue
			}
			if _, err := in.Process(ctx, path); err != nil {
				in.Logger.Error("ingest.file.failed", "file", path, "error", err)
			}
		case err, ok := <-errs:
			if ok && err != nil {
				in.Logger.Warn("ingest.watch.degraded", "error", err)
			}
		}
	}
}

func writeReport(path string, res batch.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := export.WriteCSV(f, res); err != nil {
		_ = f.Close()
		return fmt.Errorf("write report: %w", err)
	}
	return f.Close()
}
