package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/jobs-tracker/internal/common"
	"github.com/joseph-ayodele/jobs-tracker/internal/entity"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("queue is shutting down")

// JobRunner processes one job URL. *pipeline.Runner satisfies it.
type JobRunner interface {
	Run(ctx context.Context, jobURL string) entity.Record
}

// ProcessorQueue feeds queued jobs to a fixed pool of workers and keeps the
// status of every job it has seen, up to a retention limit.
type ProcessorQueue struct {
	runner  JobRunner
	logger  *slog.Logger
	workers int
	timeout time.Duration
	retain  int

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	// sendMu guards closed and sends on ch; mu guards statuses.
	sendMu   sync.RWMutex
	closed   bool
	mu       sync.Mutex
	statuses map[string]*JobStatus
	order    []string
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithRetention caps how many job statuses are remembered.
func WithRetention(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.retain = n
		}
	}
}

func NewProcessorQueue(runner JobRunner, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		runner:   runner,
		logger:   logger,
		workers:  4,
		timeout:  3 * time.Minute,
		retain:   1000,
		ch:       make(chan Job, 256),
		statuses: make(map[string]*JobStatus),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("queue.worker.start", "worker_id", workerID)

				for job := range q.ch {
					q.process(workerID, job)
				}

				q.logger.Debug("queue.worker.stop", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) process(workerID int, job Job) {
	q.setState(job.ID, JobRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	if job.TraceID != "" {
		ctx = common.WithRequestID(ctx, job.TraceID)
	}
	rec := q.runner.Run(ctx, job.URL)
	cancel()

	q.setState(job.ID, JobDone, &rec)
	if rec.Succeeded() {
		q.logger.Info("queue.job.ok", "worker_id", workerID, "job_id", job.ID, "url", job.URL)
	} else {
		q.logger.Warn("queue.job.failed", "worker_id", workerID, "job_id", job.ID, "url", job.URL, "error", rec.FirstError())
	}
}

// Enqueue records the job as queued and hands it to the workers, blocking
// while the buffer is full.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.sendMu.RLock()
	defer q.sendMu.RUnlock()
	if q.closed {
		q.logger.Warn("queue.enqueue.closed", "job_id", job.ID)
		return ErrQueueClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	q.mu.Lock()
	q.remember(&JobStatus{ID: job.ID, URL: job.URL, State: JobQueued, SubmittedAt: job.SubmittedAt})
	q.mu.Unlock()

	select {
	case q.ch <- job:
		q.logger.Info("queue.enqueue.ok", "job_id", job.ID, "url", job.URL)
		return nil
	default:
	}
	q.logger.Warn("queue.enqueue.backpressure", "job_id", job.ID)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		q.mu.Lock()
		q.forget(job.ID)
		q.mu.Unlock()
		return ctx.Err()
	}
}

// Status returns the last known status of a job.
func (q *ProcessorQueue) Status(id string) (JobStatus, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	st, ok := q.statuses[id]
	if !ok {
		return JobStatus{}, false
	}
	out := *st
	if st.Record != nil {
		rec := st.Record.Clone()
		out.Record = &rec
	}
	return out, true
}

func (q *ProcessorQueue) setState(id string, state JobState, rec *entity.Record) {
	q.mu.Lock()
	defer q.mu.Unlock()
	st, ok := q.statuses[id]
	if !ok {
		return
	}
	st.State = state
	if rec != nil {
		now := time.Now()
		st.FinishedAt = &now
		st.Record = rec
	}
}

// remember must be called with mu held.
func (q *ProcessorQueue) remember(st *JobStatus) {
	q.statuses[st.ID] = st
	q.order = append(q.order, st.ID)
	for len(q.order) > q.retain {
		delete(q.statuses, q.order[0])
		q.order = q.order[1:]
	}
}

// forget must be called with mu held.
func (q *ProcessorQueue) forget(id string) {
	delete(q.statuses, id)
	for i, v := range q.order {
		if v == id {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
}

// Shutdown stops accepting jobs and waits for queued ones to drain, or for ctx.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.sendMu.Lock()
	if q.closed {
		q.sendMu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.sendMu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("queue.shutdown.interrupted")
	case <-done:
		q.logger.Info("queue.shutdown.ok")
	}
}
