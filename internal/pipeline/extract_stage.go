package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/jobs-tracker/constants"
	"github.com/joseph-ayodele/jobs-tracker/internal/common"
	"github.com/joseph-ayodele/jobs-tracker/internal/entity"
	"github.com/joseph-ayodele/jobs-tracker/internal/llm"
)

var errNotObject = errors.New("response is not a JSON object")

// ExtractStage asks the document extractor for the structured job fields.
type ExtractStage struct {
	Extractor llm.DocumentExtractor
	MaxChars  int
	Logger    *slog.Logger
}

func NewExtractStage(x llm.DocumentExtractor, maxChars int, logger *slog.Logger) *ExtractStage {
	if logger == nil {
		logger = slog.Default()
	}
	if maxChars <= 0 {
		maxChars = llm.DefaultMaxChars
	}
	return &ExtractStage{Extractor: x, MaxChars: maxChars, Logger: logger}
}

func (s *ExtractStage) Name() constants.StageName { return constants.StageExtract }

// Run sends the (possibly truncated) page text with the fixed job-posting
// prompt and decodes the reply as a JSON object. Schema mismatches are
// normalized and logged; only undecodable replies fail the stage.
func (s *ExtractStage) Run(ctx context.Context, rec entity.Record) entity.Update {
	if empty(rec.ParsedContent) {
		return skipped(common.CodeExtraction, common.ErrExtraction, MsgNoParsedContent)
	}
	log := common.LoggerFrom(ctx, s.Logger)

	content, truncated := llm.TruncateContent(*rec.ParsedContent, s.MaxChars)
	if truncated {
		log.Info("llm.extract.truncated", "url", rec.JobURL, "max_chars", s.MaxChars)
	}

	start := time.Now()
	raw, err := s.Extractor.ExtractDocument(ctx, llm.JobPostingSystemPrompt, llm.BuildUserPrompt(content))
	if err != nil {
		log.Error("llm.extract.failed", "url", rec.JobURL, "error", err)
		return failed(common.CodeExtraction, common.ErrExtraction, err, "Extraction error: %v", err)
	}

	details, err := decodeDetails(raw)
	if err != nil {
		log.Warn("llm.extract.bad_json", "url", rec.JobURL, "error", err, "raw_len", len(raw))
		return failed(common.CodeExtraction, common.ErrExtraction, err, "JSON parsing error: %v", err)
	}

	if verr := llm.ValidateJobDetails(details); verr != nil {
		log.Warn("llm.extract.schema_mismatch", "url", rec.JobURL, "error", verr)
		details, _ = llm.NormalizeJobDetails(details, log)
	}

	log.Info("llm.extract.ok",
		"url", rec.JobURL,
		"keys", len(details),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return entity.Update{ExtractedDetails: details}
}

func decodeDetails(raw string) (map[string]any, error) {
	var details map[string]any
	if err := json.Unmarshal([]byte(raw), &details); err != nil {
		return nil, err
	}
	if details == nil {
		return nil, errNotObject
	}
	return details, nil
}
