package pipeline

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/joseph-ayodele/jobs-tracker/constants"
	"github.com/joseph-ayodele/jobs-tracker/internal/common"
	"github.com/joseph-ayodele/jobs-tracker/internal/entity"
	"github.com/joseph-ayodele/jobs-tracker/internal/fetch"
)

// DefaultFetchTimeout bounds a single page fetch.
const DefaultFetchTimeout = 10 * time.Second

// FetchStage downloads the job page.
type FetchStage struct {
	Fetcher fetch.PageFetcher
	Timeout time.Duration
	Logger  *slog.Logger
}

func NewFetchStage(f fetch.PageFetcher, timeout time.Duration, logger *slog.Logger) *FetchStage {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &FetchStage{Fetcher: f, Timeout: timeout, Logger: logger}
}

func (s *FetchStage) Name() constants.StageName { return constants.StageFetch }

// Run issues a single GET; any status other than 200 is a failure. No retries.
func (s *FetchStage) Run(ctx context.Context, rec entity.Record) entity.Update {
	page, err := s.Fetcher.Fetch(ctx, rec.JobURL, s.Timeout)
	if err != nil {
		u := failed(common.CodeFetch, common.ErrFetch, err, "%s", err.Error())
		u.FetchStatus = entity.Ptr(constants.StatusFailed)
		return u
	}
	if page.StatusCode != http.StatusOK {
		u := failed(common.CodeFetch, common.ErrFetch, nil, "HTTP %d", page.StatusCode)
		u.FetchStatus = entity.Ptr(constants.StatusFailed)
		return u
	}
	body := string(page.Body)
	return entity.Update{
		RawHTML:     &body,
		FetchStatus: entity.Ptr(constants.StatusSuccess),
	}
}
