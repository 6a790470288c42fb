// Package pipeline runs a job URL through the fixed fetch, parse, extract,
// prepare and save stages.
package pipeline

import (
	"context"
	"fmt"

	"github.com/joseph-ayodele/jobs-tracker/constants"
	"github.com/joseph-ayodele/jobs-tracker/internal/common"
	"github.com/joseph-ayodele/jobs-tracker/internal/entity"
)

// Stage is one step of the pipeline. Run reads the fields earlier stages set on
// rec and returns only the fields it owns. A stage whose inputs are missing
// returns an update carrying just an error message and does no work.
type Stage interface {
	Name() constants.StageName
	Run(ctx context.Context, rec entity.Record) entity.Update
}

// Precondition messages.
const (
	MsgNoHTML          = "No HTML content to parse"
	MsgNoParsedContent = "No parsed content to extract from"
	MsgNoDetails       = "No details to prepare"
	MsgNoFinalDetails  = "No details to save"
)

// skipped is the update a stage returns when its input is missing.
func skipped(code string, kind error, message string) entity.Update {
	return entity.Failure(message, common.StageError(code, kind, message, nil))
}

// failed records a stage failure; message is what callers see.
func failed(code string, kind error, cause error, format string, args ...any) entity.Update {
	message := fmt.Sprintf(format, args...)
	return entity.Failure(message, common.StageError(code, kind, message, cause))
}

func empty(s *string) bool {
	return s == nil || *s == ""
}
