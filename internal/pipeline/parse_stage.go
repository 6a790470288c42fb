package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/joseph-ayodele/jobs-tracker/constants"
	"github.com/joseph-ayodele/jobs-tracker/internal/cleaner"
	"github.com/joseph-ayodele/jobs-tracker/internal/common"
	"github.com/joseph-ayodele/jobs-tracker/internal/entity"
)

// strippedElements never carry posting text.
const strippedElements = "script, style, nav, header, footer"

// ParseStage turns raw HTML into cleaned plain text.
type ParseStage struct {
	Cleaner *cleaner.Cleaner
	Logger  *slog.Logger
}

func NewParseStage(c *cleaner.Cleaner, logger *slog.Logger) *ParseStage {
	if logger == nil {
		logger = slog.Default()
	}
	if c == nil {
		c = cleaner.Default()
	}
	return &ParseStage{Cleaner: c, Logger: logger}
}

func (s *ParseStage) Name() constants.StageName { return constants.StageParse }

// Run extracts visible text, one trimmed non-blank line per text run, then
// applies the site-specific cleanup for the job URL.
func (s *ParseStage) Run(ctx context.Context, rec entity.Record) entity.Update {
	if empty(rec.RawHTML) {
		return skipped(common.CodeParse, common.ErrParse, MsgNoHTML)
	}
	log := common.LoggerFrom(ctx, s.Logger)

	text, err := HTMLToText(*rec.RawHTML)
	if err != nil {
		return failed(common.CodeParse, common.ErrParse, err, "Parsing error: %v", err)
	}
	cleaned := s.Cleaner.Clean(text, rec.JobURL)
	log.Debug("parse.text.ok",
		"url", rec.JobURL,
		"html_bytes", len(*rec.RawHTML),
		"text_chars", len(text),
		"cleaned_chars", len(cleaned),
	)
	return entity.Update{ParsedContent: &cleaned}
}

// HTMLToText drops non-content elements and returns the document's text with
// each line trimmed and blank lines removed. Entities are decoded, so text that
// spells out markup (&lt;script&gt;) comes back as markup: feeding the output
// back in is only a no-op for text without tag-like runs.
func HTMLToText(raw string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", err
	}
	doc.Find(strippedElements).Remove()

	var runs []string
	for _, n := range doc.Nodes {
		collectText(n, &runs)
	}

	lines := make([]string, 0, len(runs))
	for _, line := range strings.Split(strings.Join(runs, "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func collectText(n *html.Node, out *[]string) {
	if n.Type == html.TextNode {
		*out = append(*out, n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, out)
	}
}
