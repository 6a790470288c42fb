package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/jobs-tracker/constants"
	"github.com/joseph-ayodele/jobs-tracker/internal/common"
	"github.com/joseph-ayodele/jobs-tracker/internal/entity"
)

// Stages holds one implementation per pipeline step.
type Stages struct {
	Fetch   Stage
	Parse   Stage
	Extract Stage
	Prepare Stage
	Save    Stage
}

// Runner drives a single job URL through every stage in order.
type Runner struct {
	Logger *slog.Logger
	stages []Stage
}

func NewRunner(s Stages, logger *slog.Logger) (*Runner, error) {
	ordered := []Stage{s.Fetch, s.Parse, s.Extract, s.Prepare, s.Save}
	for i, st := range ordered {
		if st == nil {
			return nil, fmt.Errorf("pipeline: %s stage is not configured", constants.StageOrder[i])
		}
	}
	return newRunner(logger, ordered...), nil
}

func newRunner(logger *slog.Logger, stages ...Stage) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{Logger: logger, stages: stages}
}

// Run executes all stages and returns the final record. It never returns an
// error and never panics: failures end up in the record's ErrorMessage, and a
// failed stage leaves later stages without their inputs so they do nothing.
func (r *Runner) Run(ctx context.Context, jobURL string) entity.Record {
	return r.run(ctx, entity.NewRecord(jobURL), func(Stage) bool { return true })
}

// Preview runs every stage except save, so nothing is written to the tracker.
// When rec already carries RawHTML the fetch stage is skipped as well.
func (r *Runner) Preview(ctx context.Context, rec entity.Record) entity.Record {
	haveHTML := rec.RawHTML != nil
	return r.run(ctx, rec, func(st Stage) bool {
		switch st.Name() {
		case constants.StageSave:
			return false
		case constants.StageFetch:
			return !haveHTML
		}
		return true
	})
}

func (r *Runner) run(ctx context.Context, rec entity.Record, include func(Stage) bool) entity.Record {
	if common.RequestIDFromContext(ctx) == "" {
		ctx = common.WithRequestID(ctx, uuid.NewString())
	}
	log := common.LoggerFrom(ctx, r.Logger).With("url", rec.JobURL)

	start := time.Now()
	for _, st := range r.stages {
		if !include(st) {
			continue
		}
		stageStart := time.Now()
		log.Debug("pipeline.stage.start", "stage", st.Name())

		u := r.invoke(ctx, st, rec.Clone())
		if rejected := rec.Merge(u); len(rejected) > 0 {
			log.Warn("pipeline.merge.rejected", "stage", st.Name(), "fields", rejected)
		}

		elapsed := time.Since(stageStart).Milliseconds()
		if u.ErrorMessage != nil {
			log.Warn("pipeline.stage.failed", "stage", st.Name(), "error", *u.ErrorMessage, "elapsed_ms", elapsed)
			continue
		}
		log.Info("pipeline.stage.ok", "stage", st.Name(), "elapsed_ms", elapsed)
	}

	log.Info("pipeline.done",
		"success", rec.Succeeded(),
		"error", rec.FirstError(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec
}

// invoke runs one stage, turning a panic into a stage failure.
func (r *Runner) invoke(ctx context.Context, st Stage, rec entity.Record) (u entity.Update) {
	defer func() {
		if p := recover(); p != nil {
			code, kind := stageKind(st.Name())
			cause, ok := p.(error)
			if !ok {
				cause = errors.New(fmt.Sprint(p))
			}
			u = failed(code, kind, cause, "%s stage panic: %v", st.Name(), p)
			switch st.Name() {
			case constants.StageFetch:
				u.FetchStatus = entity.Ptr(constants.StatusFailed)
			case constants.StageSave:
				u.SaveStatus = entity.Ptr(constants.StatusFailed)
			}
		}
	}()
	return st.Run(ctx, rec)
}

func stageKind(name constants.StageName) (string, error) {
	switch name {
	case constants.StageFetch:
		return common.CodeFetch, common.ErrFetch
	case constants.StageParse:
		return common.CodeParse, common.ErrParse
	case constants.StageExtract:
		return common.CodeExtraction, common.ErrExtraction
	case constants.StagePrepare:
		return common.CodePreparation, common.ErrPreparation
	case constants.StageSave:
		return common.CodeSave, common.ErrSave
	}
	return "INTERNAL_ERROR", common.ErrInternal
}
