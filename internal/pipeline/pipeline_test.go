package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/jobs-tracker/constants"
	"github.com/joseph-ayodele/jobs-tracker/internal/cleaner"
	"github.com/joseph-ayodele/jobs-tracker/internal/common"
	"github.com/joseph-ayodele/jobs-tracker/internal/entity"
	"github.com/joseph-ayodele/jobs-tracker/internal/fetch"
	"github.com/joseph-ayodele/jobs-tracker/internal/llm"
	"github.com/joseph-ayodele/jobs-tracker/internal/tracker"
)

const validDetails = `{
  "job_title": "Backend Engineer",
  "company": "Acme",
  "location": "Remote",
  "job_type": "Full-time",
  "workplace_type": "Remote",
  "salary": "Not mentioned",
  "experience_required": "3+ years",
  "skills_required": ["Go", "PostgreSQL"],
  "posted_date": "2 days ago",
  "application_deadline": "Not mentioned"
}`

type fetcherFunc func(ctx context.Context, url string, timeout time.Duration) (fetch.Page, error)

func (f fetcherFunc) Fetch(ctx context.Context, url string, timeout time.Duration) (fetch.Page, error) {
	return f(ctx, url, timeout)
}

func pageFetcher(status int, body string) fetch.PageFetcher {
	return fetcherFunc(func(context.Context, string, time.Duration) (fetch.Page, error) {
		return fetch.Page{StatusCode: status, Body: []byte(body)}, nil
	})
}

func staticExtractor(reply string, calls *atomic.Int32) llm.DocumentExtractor {
	return llm.DocumentExtractorFunc(func(context.Context, string, string) (string, error) {
		if calls != nil {
			calls.Add(1)
		}
		return reply, nil
	})
}

type memSheet struct {
	mu   sync.Mutex
	rows [][]string
	err  error
}

func (m *memSheet) AppendRow(_ context.Context, values []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	m.rows = append(m.rows, values)
	return len(m.rows), nil
}

func (m *memSheet) Close() error { return nil }

var fixedNow = time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)

func testRunner(t *testing.T, f fetch.PageFetcher, x llm.DocumentExtractor, sheet tracker.Sheet) *Runner {
	t.Helper()
	r, err := NewRunner(Stages{
		Fetch:   NewFetchStage(f, time.Second, nil),
		Parse:   NewParseStage(nil, nil),
		Extract: NewExtractStage(x, 0, nil),
		Prepare: NewPrepareStage(func() time.Time { return fixedNow }),
		Save:    NewSaveStage(sheet, nil),
	}, nil)
	require.NoError(t, err)
	return r
}

func TestFetchStage(t *testing.T) {
	ctx := context.Background()
	rec := entity.NewRecord("https://example.com/job")

	u := NewFetchStage(pageFetcher(200, "<p>hi</p>"), 0, nil).Run(ctx, rec)
	require.NotNil(t, u.RawHTML)
	assert.Equal(t, "<p>hi</p>", *u.RawHTML)
	assert.Equal(t, constants.StatusSuccess, *u.FetchStatus)
	assert.Nil(t, u.ErrorMessage)

	u = NewFetchStage(pageFetcher(503, "busy"), 0, nil).Run(ctx, rec)
	assert.Nil(t, u.RawHTML)
	assert.Equal(t, constants.StatusFailed, *u.FetchStatus)
	assert.Equal(t, "HTTP 503", *u.ErrorMessage)
	assert.ErrorIs(t, u.Cause, common.ErrFetch)

	broken := fetcherFunc(func(context.Context, string, time.Duration) (fetch.Page, error) {
		return fetch.Page{}, errors.New("dial tcp: connection refused")
	})
	u = NewFetchStage(broken, 0, nil).Run(ctx, rec)
	assert.Equal(t, constants.StatusFailed, *u.FetchStatus)
	assert.Equal(t, "dial tcp: connection refused", *u.ErrorMessage)
}

func TestHTMLToText_StripsChromeAndBlankLines(t *testing.T) {
	raw := `<html><head><style>p{}</style><script>var x = 1;</script></head>
<body>
  <header>Site header</header>
  <nav>Home | Jobs</nav>
  <h1>  Backend Engineer  </h1>

  <div>Acme Corp<br>Remote</div>
  <footer>Footer links</footer>
</body></html>`

	text, err := HTMLToText(raw)
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer\nAcme Corp\nRemote", text)
}

func TestParseStage_IdempotentOnCleanText(t *testing.T) {
	stage := NewParseStage(nil, nil)
	clean := "Backend Engineer\nAcme Corp\nRemote"

	once := stage.Run(context.Background(), entity.Record{JobURL: "https://example.com/1", RawHTML: &clean})
	require.NotNil(t, once.ParsedContent)
	assert.Equal(t, clean, *once.ParsedContent)

	twice := stage.Run(context.Background(), entity.Record{JobURL: "https://example.com/1", RawHTML: once.ParsedContent})
	assert.Equal(t, *once.ParsedContent, *twice.ParsedContent)
}

func TestHTMLToText_EscapedMarkupIsDecodedOnce(t *testing.T) {
	raw := `<p>Salary &lt;100k</p><p>Embed via &lt;script&gt; tag</p><p>Apply today</p>`

	once, err := HTMLToText(raw)
	require.NoError(t, err)
	assert.Equal(t, "Salary <100k\nEmbed via <script> tag\nApply today", once)

	// the decoded text now holds a real script tag, which a second pass strips
	twice, err := HTMLToText(once)
	require.NoError(t, err)
	assert.Equal(t, "Salary <100k\nEmbed via", twice)
}

func TestParseStage_LinkedInTruncation(t *testing.T) {
	raw := "<div>Senior Go Engineer</div><div>Great team</div><div>People also viewed</div><div>Other job</div>"
	u := NewParseStage(cleaner.Default(), nil).Run(context.Background(), entity.Record{
		JobURL:  "https://www.linkedin.com/jobs/view/123",
		RawHTML: &raw,
	})
	require.NotNil(t, u.ParsedContent)
	assert.Equal(t, "Senior Go Engineer\nGreat team", *u.ParsedContent)
}

func TestParseStage_MissingHTML(t *testing.T) {
	blank := ""
	for _, rec := range []entity.Record{{JobURL: "u"}, {JobURL: "u", RawHTML: &blank}} {
		u := NewParseStage(nil, nil).Run(context.Background(), rec)
		assert.Nil(t, u.ParsedContent)
		assert.Equal(t, MsgNoHTML, *u.ErrorMessage)
	}
}

func TestExtractStage_NonJSONReply(t *testing.T) {
	content := "Backend Engineer at Acme"
	u := NewExtractStage(staticExtractor("Sure! Here are the details.", nil), 0, nil).
		Run(context.Background(), entity.Record{JobURL: "u", ParsedContent: &content})

	assert.Nil(t, u.ExtractedDetails)
	require.NotNil(t, u.ErrorMessage)
	assert.True(t, strings.HasPrefix(*u.ErrorMessage, "JSON parsing error: "), *u.ErrorMessage)
	assert.ErrorIs(t, u.Cause, common.ErrExtraction)
}

func TestExtractStage_NullReplyIsNotAnObject(t *testing.T) {
	content := "x"
	u := NewExtractStage(staticExtractor("null", nil), 0, nil).
		Run(context.Background(), entity.Record{JobURL: "u", ParsedContent: &content})
	assert.Nil(t, u.ExtractedDetails)
	assert.Contains(t, *u.ErrorMessage, "JSON parsing error")
}

func TestExtractStage_CapabilityFailure(t *testing.T) {
	content := "x"
	x := llm.DocumentExtractorFunc(func(context.Context, string, string) (string, error) {
		return "", errors.New("rate limited")
	})
	u := NewExtractStage(x, 0, nil).Run(context.Background(), entity.Record{JobURL: "u", ParsedContent: &content})
	assert.Equal(t, "Extraction error: rate limited", *u.ErrorMessage)
}

func TestExtractStage_TruncatesAndPrompts(t *testing.T) {
	content := strings.Repeat("é", llm.DefaultMaxChars+500)
	var gotSystem, gotDoc string
	x := llm.DocumentExtractorFunc(func(_ context.Context, system, doc string) (string, error) {
		gotSystem, gotDoc = system, doc
		return validDetails, nil
	})

	u := NewExtractStage(x, 0, nil).Run(context.Background(), entity.Record{JobURL: "u", ParsedContent: &content})
	require.Nil(t, u.ErrorMessage)
	assert.Equal(t, llm.JobPostingSystemPrompt, gotSystem)
	assert.True(t, strings.HasPrefix(gotDoc, "Job Posting Content:\n\n"))
	assert.True(t, strings.HasSuffix(gotDoc, llm.TruncationMarker))

	body := strings.TrimSuffix(strings.TrimPrefix(gotDoc, "Job Posting Content:\n\n"), llm.TruncationMarker)
	assert.Equal(t, llm.DefaultMaxChars, utf8.RuneCountInString(body))
	assert.Equal(t, "Backend Engineer", u.ExtractedDetails["job_title"])
}

func TestExtractStage_NormalizesSchemaMismatch(t *testing.T) {
	content := "x"
	reply := `{"job_title": "SRE", "skills_required": "Go, Kubernetes", "salary": null}`
	u := NewExtractStage(staticExtractor(reply, nil), 0, nil).
		Run(context.Background(), entity.Record{JobURL: "u", ParsedContent: &content})

	require.Nil(t, u.ErrorMessage)
	assert.Equal(t, []any{"Go", "Kubernetes"}, u.ExtractedDetails["skills_required"])
	assert.NotContains(t, u.ExtractedDetails, "salary")
}

func TestBuildTrackerRow_Defaults(t *testing.T) {
	row, err := BuildTrackerRow(map[string]any{
		"job_title":       "SRE",
		"skills_required": []any{"Go", "Terraform"},
		"salary":          120000.0,
	}, "https://example.com/sre", fixedNow)
	require.NoError(t, err)

	assert.Equal(t, entity.TrackerRow{
		JobTitle:            "SRE",
		Company:             constants.NotAvailable,
		Location:            constants.NotAvailable,
		JobType:             constants.NotAvailable,
		WorkplaceType:       constants.NotAvailable,
		Salary:              "120000",
		ExperienceRequired:  constants.NotMentioned,
		SkillsRequired:      "Go, Terraform",
		PostedDate:          constants.NotAvailable,
		ApplicationDeadline: constants.NotMentioned,
		DateAdded:           "2024-03-05 14:07:09",
		JobURL:              "https://example.com/sre",
		Notes:               "",
	}, row)
	assert.Len(t, row.Values(), len(constants.TrackerColumns))
}

func TestPrepareStage_BadSkillsType(t *testing.T) {
	u := NewPrepareStage(nil).Run(context.Background(), entity.Record{
		JobURL:           "u",
		ExtractedDetails: map[string]any{"skills_required": map[string]any{"a": 1}},
	})
	assert.Nil(t, u.FinalDetails)
	assert.Contains(t, *u.ErrorMessage, "Preparation error: ")
}

func TestSaveStage_MissingCredentials(t *testing.T) {
	opener := tracker.OpenerFunc(func(context.Context, string, string) (tracker.Sheet, error) {
		t.Fatal("opener must not be called without credentials")
		return nil, nil
	})
	sheet := tracker.NewLazy(opener, "db-id", "", true, nil)

	u := NewSaveStage(sheet, nil).Run(context.Background(), entity.Record{
		JobURL:       "u",
		FinalDetails: &entity.TrackerRow{JobTitle: "SRE"},
	})
	assert.Equal(t, constants.StatusFailed, *u.SaveStatus)
	assert.Nil(t, u.TrackerID)
	assert.True(t, strings.HasPrefix(*u.ErrorMessage, "credentials not configured: "), *u.ErrorMessage)

	rec := entity.NewRecord("u")
	rec.Merge(u)
	assert.ErrorIs(t, SaveError(rec), tracker.ErrMissingCredentials)
	assert.ErrorIs(t, SaveError(rec), common.ErrSave)
}

func TestSaveStage_WriteFailure(t *testing.T) {
	sheet := &memSheet{err: errors.Join(tracker.ErrWrite, errors.New("quota exceeded"))}
	u := NewSaveStage(sheet, nil).Run(context.Background(), entity.Record{
		JobURL:       "u",
		FinalDetails: &entity.TrackerRow{JobTitle: "SRE"},
	})
	assert.Equal(t, constants.StatusFailed, *u.SaveStatus)
	assert.True(t, strings.HasPrefix(*u.ErrorMessage, "Save error: "))
	assert.ErrorIs(t, u.Cause, tracker.ErrWrite)
}

func TestRunner_StickyFailureAfterFetch(t *testing.T) {
	var calls atomic.Int32
	sheet := &memSheet{}
	rec := testRunner(t, pageFetcher(404, "not found"), staticExtractor(validDetails, &calls), sheet).
		Run(context.Background(), "https://example.com/gone")

	assert.Equal(t, constants.StatusFailed, *rec.FetchStatus)
	assert.Equal(t, "HTTP 404", rec.FirstError())
	assert.Nil(t, rec.RawHTML)
	assert.Nil(t, rec.ParsedContent)
	assert.Nil(t, rec.ExtractedDetails)
	assert.Nil(t, rec.FinalDetails)
	assert.Nil(t, rec.SaveStatus)
	assert.Nil(t, rec.TrackerID)
	assert.False(t, rec.Succeeded())
	assert.Zero(t, calls.Load())
	assert.Empty(t, sheet.rows)
	assert.ErrorIs(t, rec.Err(), common.ErrFetch)
	assert.NoError(t, SaveError(rec))
}

func TestRunner_RecoversStagePanic(t *testing.T) {
	x := llm.DocumentExtractorFunc(func(context.Context, string, string) (string, error) {
		panic("boom")
	})
	sheet := &memSheet{}
	rec := testRunner(t, pageFetcher(200, "<p>Job</p>"), x, sheet).Run(context.Background(), "https://example.com/job")

	assert.Equal(t, "extract stage panic: boom", rec.FirstError())
	assert.ErrorIs(t, rec.Err(), common.ErrExtraction)
	require.NotNil(t, rec.ParsedContent)
	assert.Equal(t, "Job", *rec.ParsedContent)
	assert.Nil(t, rec.FinalDetails)
	assert.Nil(t, rec.SaveStatus)
	assert.Empty(t, sheet.rows)
}

type overwritingStage struct{}

func (overwritingStage) Name() constants.StageName { return constants.StageParse }

func (overwritingStage) Run(context.Context, entity.Record) entity.Update {
	html := "<p>replaced</p>"
	parsed := "parsed"
	return entity.Update{RawHTML: &html, ParsedContent: &parsed}
}

func TestRunner_FieldsAreWriteOnce(t *testing.T) {
	r := newRunner(nil,
		NewFetchStage(pageFetcher(200, "<p>original</p>"), 0, nil),
		overwritingStage{},
	)
	rec := r.Run(context.Background(), "https://example.com/job")

	assert.Equal(t, "<p>original</p>", *rec.RawHTML)
	assert.Equal(t, "parsed", *rec.ParsedContent)
}

func TestNewRunner_RequiresEveryStage(t *testing.T) {
	_, err := NewRunner(Stages{Fetch: NewFetchStage(pageFetcher(200, ""), 0, nil)}, nil)
	assert.ErrorContains(t, err, "parse stage is not configured")
}
