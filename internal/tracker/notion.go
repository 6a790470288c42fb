package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	gnt "github.com/dstotijn/go-notion"

	"github.com/joseph-ayodele/jobs-tracker/constants"
)

// NotionOpener opens a Notion database; storeID is the database id and
// credentials is the integration token. The database must have a title
// property named "Job Title", a URL property named "Job URL" and text
// properties for the other tracker columns.
type NotionOpener struct {
	HTTPClient *http.Client
	Logger     *slog.Logger
}

func (o NotionOpener) Open(ctx context.Context, databaseID, token string) (Sheet, error) {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if token == "" {
		return nil, fmt.Errorf("%w: notion token", ErrMissingCredentials)
	}
	var opts []gnt.ClientOption
	if o.HTTPClient != nil {
		opts = append(opts, gnt.WithHTTPClient(o.HTTPClient))
	}
	s := &notionSheet{api: gnt.NewClient(token, opts...), databaseID: databaseID}

	rows, err := s.countRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: notion database %s: %w", ErrNotFound, databaseID, err)
	}
	// header row counts, to match the spreadsheet backends
	s.rows = rows + 1
	logger.Info("tracker.notion.open", "database_id", databaseID, "rows", rows)
	return s, nil
}

type notionSheet struct {
	api        *gnt.Client
	databaseID string

	mu   sync.Mutex
	rows int
}

func (s *notionSheet) countRows(ctx context.Context) (int, error) {
	n := 0
	query := &gnt.DatabaseQuery{PageSize: 100}
	for {
		resp, err := s.api.QueryDatabase(ctx, s.databaseID, query)
		if err != nil {
			return 0, err
		}
		n += len(resp.Results)
		if !resp.HasMore || resp.NextCursor == nil {
			return n, nil
		}
		query.StartCursor = *resp.NextCursor
	}
}

func (s *notionSheet) AppendRow(ctx context.Context, values []string) (int, error) {
	if len(values) != len(constants.TrackerColumns) {
		return 0, fmt.Errorf("%w: got %d values, want %d", ErrWrite, len(values), len(constants.TrackerColumns))
	}
	props := notionProperties(values)
	_, err := s.api.CreatePage(ctx, gnt.CreatePageParams{
		ParentType:             gnt.ParentTypeDatabase,
		ParentID:               s.databaseID,
		DatabasePageProperties: &props,
	})
	if err != nil {
		return 0, writeErr(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows++
	return s.rows, nil
}

func (s *notionSheet) Close() error { return nil }

// notionProperties maps a row to page properties. Empty values are left out:
// Notion rejects a property object that carries no value.
func notionProperties(values []string) gnt.DatabasePageProperties {
	props := gnt.DatabasePageProperties{}
	for i, col := range constants.TrackerColumns {
		v := values[i]
		if v == "" {
			continue
		}
		switch col {
		case constants.ColJobTitle:
			props[col] = gnt.DatabasePageProperty{Title: richText(v)}
		case constants.ColJobURL:
			props[col] = gnt.DatabasePageProperty{URL: &v}
		default:
			props[col] = gnt.DatabasePageProperty{RichText: richText(v)}
		}
	}
	return props
}

// richText builds a Notion rich_text slice from a plain string.
func richText(s string) []gnt.RichText {
	return []gnt.RichText{{Text: &gnt.Text{Content: s}}}
}
