package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test-1234567890")
	t.Setenv("FETCH_TIMEOUT", "3s")
	t.Setenv("TRACKER_BACKEND", "SQLite")
	t.Setenv("BATCH_MAX_CONCURRENCY", "not-a-number")

	cfg := LoadConfig()
	assert.Equal(t, 3*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, "sqlite", cfg.Tracker.Backend)
	assert.Equal(t, 5, cfg.Batch.MaxConcurrency)
	assert.NoError(t, cfg.Validate())
}

func TestValidate_RequiresAPIKey(t *testing.T) {
	cfg := &Config{
		Fetch:   FetchConfig{Timeout: time.Second},
		LLM:     LLMConfig{MaxChars: 10},
		Tracker: TrackerConfig{StoreID: "x.xlsx"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, CodeConfig, appErr.Code)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "", Mask(""))
	assert.Equal(t, "****", Mask("short"))
	assert.Equal(t, "sk-a…wxyz", Mask("sk-abcdefghijklmnopqrstuvwxyz"))
}

func TestStageError(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := StageError(CodeFetch, ErrFetch, "fetch", cause)
	assert.ErrorIs(t, err, ErrFetch)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrSave)

	assert.ErrorIs(t, StageError(CodeSave, ErrSave, "save", nil), ErrSave)
}

func TestValidator(t *testing.T) {
	v := NewValidator().
		Field("url", "ftp://example.com/job", Required, HTTPURL).
		Field("urls", []string{"https://ok.example/a", "nohost"}, HTTPURL).
		Field("max_concurrency", 500, Range(0, 64))
	require.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 3)
	assert.ErrorIs(t, v.Error(), ErrValidation)
	assert.Contains(t, v.ErrorMessage(), "urls[1]")

	ok := NewValidator().Field("url", "https://example.com/job", Required, HTTPURL, MaxLength(100))
	assert.NoError(t, ok.Error())
}

func TestLoggerFrom_NilLogger(t *testing.T) {
	ctx := WithBatchID(WithRequestID(context.Background(), "r1"), "b1")
	assert.NotNil(t, LoggerFrom(ctx, nil))
	assert.Equal(t, "r1", RequestIDFromContext(ctx))
	assert.Equal(t, "b1", BatchIDFromContext(ctx))
}
