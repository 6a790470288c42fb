// Package async runs single-job pipelines in the background for the HTTP API.
package async

import (
	"context"
	"time"

	"github.com/joseph-ayodele/jobs-tracker/internal/entity"
)

// Job is one queued job URL.
type Job struct {
	ID          string
	URL         string
	SubmittedAt time.Time
	TraceID     string
}

// JobState is the lifecycle of a queued job.
type JobState string

const (
	JobQueued  JobState = "queued"
	JobRunning JobState = "running"
	JobDone    JobState = "done"
)

// JobStatus is what callers see when they poll a job.
type JobStatus struct {
	ID          string         `json:"id"`
	URL         string         `json:"url"`
	State       JobState       `json:"state"`
	SubmittedAt time.Time      `json:"submitted_at"`
	FinishedAt  *time.Time     `json:"finished_at,omitempty"`
	Record      *entity.Record `json:"record,omitempty"`
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Status(id string) (JobStatus, bool)
	Shutdown(ctx context.Context)
}
