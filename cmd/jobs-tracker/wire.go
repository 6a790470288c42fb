package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/joseph-ayodele/jobs-tracker/internal/batch"
	"github.com/joseph-ayodele/jobs-tracker/internal/cleaner"
	"github.com/joseph-ayodele/jobs-tracker/internal/common"
	"github.com/joseph-ayodele/jobs-tracker/internal/fetch"
	"github.com/joseph-ayodele/jobs-tracker/internal/llm/openai"
	"github.com/joseph-ayodele/jobs-tracker/internal/logging"
	"github.com/joseph-ayodele/jobs-tracker/internal/pipeline"
	"github.com/joseph-ayodele/jobs-tracker/internal/tracker"
)

// app holds everything a command needs, built once from config.
type app struct {
	cfg         *common.Config
	logger      *slog.Logger
	logCloser   io.Closer
	sheet       *tracker.Lazy
	runner      *pipeline.Runner
	coordinator *batch.Coordinator
}

// loadConfig reads env/.env, applies flag overrides and sets up logging.
func loadConfig(opts *rootOptions) (*common.Config, *slog.Logger, io.Closer) {
	cfg := common.LoadConfig()
	opts.apply(cfg)
	logger, closer := logging.New(cfg.Log)
	slog.SetDefault(logger)
	return cfg, logger, closer
}

func newApp(opts *rootOptions, batchOpts ...batch.Option) (*app, error) {
	cfg, logger, closer := loadConfig(opts)
	if err := cfg.Validate(); err != nil {
		_ = closer.Close()
		return nil, err
	}
	logStartup(cfg, logger)

	clean, err := cleaner.LoadRules(cfg.Cleaner.RulesFile, logger)
	if err != nil {
		_ = closer.Close()
		return nil, common.NewAppError(common.CodeConfig, "load cleaner rules", err)
	}

	backend, err := tracker.NewBackend(cfg.Tracker.Backend, cfg.Tracker.CreateIfMissing, logger)
	if err != nil {
		_ = closer.Close()
		return nil, common.NewAppError(common.CodeConfig, "tracker backend", err)
	}
	sheet := backend.Lazy(cfg.Tracker.StoreID, cfg.Tracker.Credentials, logger)

	fetcher := fetch.NewHTTPFetcher(fetch.Config{
		UserAgent:    cfg.Fetch.UserAgent,
		RatePerHost:  cfg.Fetch.RatePerHost,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
	}, &http.Client{}, logger)

	llmClient := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
		JSONMode:    true,
	}, logger)

	runner, err := pipeline.NewRunner(pipeline.Stages{
		Fetch:   pipeline.NewFetchStage(fetcher, cfg.Fetch.Timeout, logger),
		Parse:   pipeline.NewParseStage(clean, logger),
		Extract: pipeline.NewExtractStage(llmClient, cfg.LLM.MaxChars, logger),
		Prepare: pipeline.NewPrepareStage(nil),
		Save:    pipeline.NewSaveStage(sheet, logger),
	}, logger)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}

	batchOpts = append([]batch.Option{batch.WithDefaultConcurrency(cfg.Batch.MaxConcurrency)}, batchOpts...)
	return &app{
		cfg:         cfg,
		logger:      logger,
		logCloser:   closer,
		sheet:       sheet,
		runner:      runner,
		coordinator: batch.NewCoordinator(runner, logger, batchOpts...),
	}, nil
}

func (a *app) Close() {
	if err := a.sheet.Close(); err != nil {
		a.logger.Error("tracker.close.failed", "error", err)
	}
	_ = a.logCloser.Close()
}

func logStartup(cfg *common.Config, logger *slog.Logger) {
	logger.Info("config.loaded",
		"openai_model", cfg.LLM.Model,
		"openai_base_url", cfg.LLM.BaseURL,
		"openai_api_key", common.Mask(cfg.LLM.APIKey),
		"tracker_backend", cfg.Tracker.Backend,
		"tracker_store_id", cfg.Tracker.StoreID,
		"tracker_credentials", common.Mask(cfg.Tracker.Credentials),
		"fetch_timeout", cfg.Fetch.Timeout.String(),
		"batch_max_concurrency", cfg.Batch.MaxConcurrency,
	)
	if cfg.Tracker.Credentials == "" {
		switch cfg.Tracker.Backend {
		case tracker.BackendMySQL, tracker.BackendPostgres, tracker.BackendNotion:
			logger.Warn("config.tracker.no_credentials", "backend", cfg.Tracker.Backend,
				"hint", fmt.Sprintf("set TRACKER_CREDENTIALS; saves to %s will fail", cfg.Tracker.Backend))
		}
	}
}
