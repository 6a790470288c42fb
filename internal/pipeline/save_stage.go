package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/jobs-tracker/constants"
	"github.com/joseph-ayodele/jobs-tracker/internal/common"
	"github.com/joseph-ayodele/jobs-tracker/internal/entity"
	"github.com/joseph-ayodele/jobs-tracker/internal/tracker"
)

// SaveStage appends the prepared row to the tracker.
type SaveStage struct {
	Sheet  tracker.Sheet
	Logger *slog.Logger
}

func NewSaveStage(sheet tracker.Sheet, logger *slog.Logger) *SaveStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &SaveStage{Sheet: sheet, Logger: logger}
}

func (s *SaveStage) Name() constants.StageName { return constants.StageSave }

// Run writes the row in column order. TrackerID is the store's row count
// right after the append.
func (s *SaveStage) Run(ctx context.Context, rec entity.Record) entity.Update {
	if rec.FinalDetails == nil {
		return skipped(common.CodeSave, common.ErrSave, MsgNoFinalDetails)
	}
	log := common.LoggerFrom(ctx, s.Logger)

	n, err := s.Sheet.AppendRow(ctx, rec.FinalDetails.Values())
	if err != nil {
		var u entity.Update
		if errors.Is(err, tracker.ErrMissingCredentials) {
			detail := strings.TrimPrefix(err.Error(), tracker.ErrMissingCredentials.Error()+": ")
			u = failed(common.CodeSave, common.ErrSave, err, "credentials not configured: %s", detail)
		} else {
			u = failed(common.CodeSave, common.ErrSave, err, "Save error: %v", err)
		}
		log.Error("tracker.save.failed", "url", rec.JobURL, "error", err)
		u.SaveStatus = entity.Ptr(constants.StatusFailed)
		return u
	}

	id := strconv.Itoa(n)
	log.Info("tracker.save.ok", "url", rec.JobURL, "row", n)
	return entity.Update{
		SaveStatus: entity.Ptr(constants.StatusSuccess),
		TrackerID:  &id,
	}
}

// SaveError returns the record's error when it came from the save stage, so
// callers can branch on tracker.ErrMissingCredentials, tracker.ErrNotFound or
// tracker.ErrWrite.
func SaveError(rec entity.Record) error {
	err := rec.Err()
	if err == nil || !errors.Is(err, common.ErrSave) {
		return nil
	}
	return err
}
