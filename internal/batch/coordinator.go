// Package batch runs the job pipeline over many URLs with bounded concurrency.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/joseph-ayodele/jobs-tracker/constants"
	"github.com/joseph-ayodele/jobs-tracker/internal/common"
	"github.com/joseph-ayodele/jobs-tracker/internal/entity"
)

// DefaultMaxConcurrency applies when a batch asks for zero or fewer slots.
const DefaultMaxConcurrency = 5

// JobRunner processes a single job URL. *pipeline.Runner satisfies it.
type JobRunner interface {
	Run(ctx context.Context, jobURL string) entity.Record
}

// Outcome is the terminal result for one input URL.
type Outcome struct {
	Index     int                     `json:"index"`
	URL       string                  `json:"url"`
	Status    constants.OutcomeStatus `json:"status"`
	Details   *entity.TrackerRow      `json:"details,omitempty"`
	TrackerID string                  `json:"tracker_id,omitempty"`
	Error     string                  `json:"error,omitempty"`
	Record    entity.Record           `json:"-"`
}

// Summary aggregates a batch. Failed counts both failed and error outcomes.
type Summary struct {
	Successful     int           `json:"successful"`
	Failed         int           `json:"failed"`
	Total          int           `json:"total"`
	Elapsed        time.Duration `json:"-"`
	ElapsedSeconds float64       `json:"elapsed_seconds"`
	Throughput     float64       `json:"throughput"` // jobs per second
}

// Result holds one outcome per input URL, in input order.
type Result struct {
	BatchID  string    `json:"batch_id"`
	Outcomes []Outcome `json:"outcomes"`
	Summary  Summary   `json:"summary"`
}

// ProgressFunc is called once per finished URL; done counts completions so far.
// Calls are serialized.
type ProgressFunc func(done, total int, o Outcome)

type Option func(*Coordinator)

// WithProgress registers a completion callback.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Coordinator) { c.progress = fn }
}

// WithDefaultConcurrency overrides DefaultMaxConcurrency.
func WithDefaultConcurrency(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.defaultConcurrency = n
		}
	}
}

// Coordinator fans a JobRunner out over a list of URLs.
type Coordinator struct {
	runner             JobRunner
	logger             *slog.Logger
	defaultConcurrency int
	progress           ProgressFunc
}

func NewCoordinator(runner JobRunner, logger *slog.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Coordinator{
		runner:             runner,
		logger:             logger,
		defaultConcurrency: DefaultMaxConcurrency,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Run processes every URL, at most maxConcurrency at a time. It waits for all
// of them and always returns one outcome per input, in input order. A URL whose
// run panics gets an error outcome; the rest of the batch is unaffected.
func (c *Coordinator) Run(ctx context.Context, urls []string, maxConcurrency int) Result {
	if maxConcurrency <= 0 {
		maxConcurrency = c.defaultConcurrency
	}
	batchID := uuid.NewString()
	ctx = common.WithBatchID(ctx, batchID)
	log := common.LoggerFrom(ctx, c.logger)
	log.Info("batch.start", "urls", len(urls), "max_concurrency", maxConcurrency)

	start := time.Now()
	outcomes := make([]Outcome, len(urls))
	gate := semaphore.NewWeighted(int64(maxConcurrency))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			o := c.runOne(ctx, gate, i, u)
			outcomes[i] = o

			mu.Lock()
			defer mu.Unlock()
			done++
			log.Info("batch.progress", "done", done, "total", len(urls), "url", u, "status", o.Status)
			if c.progress != nil {
				c.progress(done, len(urls), o)
			}
		}(i, u)
	}
	wg.Wait()

	res := Result{
		BatchID:  batchID,
		Outcomes: outcomes,
		Summary:  summarize(outcomes, time.Since(start)),
	}
	log.Info("batch.done",
		"successful", res.Summary.Successful,
		"failed", res.Summary.Failed,
		"total", res.Summary.Total,
		"elapsed_ms", res.Summary.Elapsed.Milliseconds(),
		"throughput", res.Summary.Throughput,
	)
	return res
}

func (c *Coordinator) runOne(ctx context.Context, gate *semaphore.Weighted, i int, u string) (o Outcome) {
	o = Outcome{Index: i, URL: u}
	defer func() {
		if p := recover(); p != nil {
			o.Status = constants.OutcomeError
			o.Error = fmt.Sprint(p)
			o.Record = entity.NewRecord(u)
			c.logger.Error("batch.run.panic", "url", u, "panic", o.Error)
		}
	}()

	if err := gate.Acquire(ctx, 1); err != nil {
		o.Status = constants.OutcomeError
		o.Error = err.Error()
		o.Record = entity.NewRecord(u)
		return o
	}
	defer gate.Release(1)

	rec := c.runner.Run(ctx, u)
	return outcomeFor(i, rec)
}

func outcomeFor(i int, rec entity.Record) Outcome {
	o := Outcome{Index: i, URL: rec.JobURL, Record: rec.Clone()}
	if rec.Succeeded() {
		o.Status = constants.OutcomeSuccess
		o.Details = o.Record.FinalDetails
		if rec.TrackerID != nil {
			o.TrackerID = *rec.TrackerID
		}
		return o
	}
	o.Status = constants.OutcomeFailed
	o.Error = rec.FirstError()
	if o.Error == "" {
		o.Error = "Unknown error"
	}
	return o
}

func summarize(outcomes []Outcome, elapsed time.Duration) Summary {
	s := Summary{Total: len(outcomes), Elapsed: elapsed, ElapsedSeconds: elapsed.Seconds()}
	for _, o := range outcomes {
		if o.Status == constants.OutcomeSuccess {
			s.Successful++
		} else {
			s.Failed++
		}
	}
	if secs := elapsed.Seconds(); secs > 0 {
		s.Throughput = float64(s.Total) / secs
	}
	return s
}
