package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateContent(t *testing.T) {
	short, cut := TruncateContent("hello", 10)
	assert.False(t, cut)
	assert.Equal(t, "hello", short)

	long := strings.Repeat("é", 12)
	out, cut := TruncateContent(long, 10)
	assert.True(t, cut)
	assert.True(t, strings.HasSuffix(out, TruncationMarker))
	assert.Equal(t, 10, utf8.RuneCountInString(strings.TrimSuffix(out, TruncationMarker)))

	exact := strings.Repeat("a", DefaultMaxChars)
	out, cut = TruncateContent(exact, 0)
	assert.False(t, cut)
	assert.Equal(t, exact, out)
}

func TestBuildUserPrompt(t *testing.T) {
	assert.Equal(t, "Job Posting Content:\n\nbody", BuildUserPrompt("body"))
}

func TestValidateJobDetails(t *testing.T) {
	ok := map[string]any{
		"job_title":       "Dev",
		"skills_required": []any{"Go", "SQL"},
		"extra":           42.0,
	}
	assert.NoError(t, ValidateJobDetails(ok))
	assert.NoError(t, ValidateJobDetails(map[string]any{}))

	bad := map[string]any{"skills_required": "Go, SQL"}
	assert.Error(t, ValidateJobDetails(bad))
}

func TestCompileSchema(t *testing.T) {
	schema, err := compileSchema(BuildJobJSONSchema())
	require.NoError(t, err)
	assert.NoError(t, schema.Validate(map[string]any{"company": "Acme"}))
	assert.Error(t, schema.Validate(map[string]any{"company": 7.0}))

	_, err = compileSchema(map[string]any{"type": make(chan int)})
	assert.Error(t, err)
}

func TestNormalizeJobDetails(t *testing.T) {
	in := map[string]any{
		"job_title":       nil,
		"salary":          120000.0,
		"skills_required": "Go, SQL , ,Docker",
		"location":        map[string]any{"city": "Paris"},
		"posted_date":     []any{"2 days", "ago"},
		"company":         "Acme",
		"unknown":         nil,
	}

	out, changed := NormalizeJobDetails(in, nil)

	assert.NotContains(t, out, "job_title")
	assert.Equal(t, "120000", out["salary"])
	assert.Equal(t, []any{"Go", "SQL", "Docker"}, out["skills_required"])
	assert.NotContains(t, out, "location")
	assert.Equal(t, "2 days, ago", out["posted_date"])
	assert.Equal(t, "Acme", out["company"])
	assert.Contains(t, out, "unknown")
	assert.NotEmpty(t, changed)
	assert.NoError(t, ValidateJobDetails(out))

	// input untouched
	assert.Nil(t, in["job_title"])
	assert.Contains(t, in, "job_title")
}

func TestNormalizeJobDetails_SkillsList(t *testing.T) {
	out, changed := NormalizeJobDetails(map[string]any{"skills_required": []any{"Go", 3.0, nil}}, nil)
	assert.Equal(t, []any{"Go", "3"}, out["skills_required"])
	assert.Equal(t, []string{"skills_required"}, changed)

	out, changed = NormalizeJobDetails(map[string]any{"skills_required": []any{"Go"}}, nil)
	assert.Equal(t, []any{"Go"}, out["skills_required"])
	assert.Empty(t, changed)
}

func TestSendJSON_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "v", r.Header.Get("X-Test"))
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	raw, err := SendJSON(context.Background(), nil, srv.URL, map[string]string{"a": "b"}, map[string]string{"X-Test": "v"}, nil)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
	assert.Equal(t, "upstream down", string(raw))
}
