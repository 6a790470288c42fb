package main

import (
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/jobs-tracker/internal/common"
)

type rootOptions struct {
	logLevel  string
	logFormat string
	backend   string
	store     string
}

// apply overrides config values with flags the user set.
func (o *rootOptions) apply(cfg *common.Config) {
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	if o.backend != "" {
		cfg.Tracker.Backend = o.backend
	}
	if o.store != "" {
		cfg.Tracker.StoreID = o.store
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "jobs-tracker",
		Short:         "Extract job postings from URLs and record them in a tracker",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format (json, text); overrides LOG_FORMAT")
	root.PersistentFlags().StringVar(&opts.backend, "backend", "", "tracker backend (xlsx, sqlite, mysql, postgres, notion); overrides TRACKER_BACKEND")
	root.PersistentFlags().StringVar(&opts.store, "store", "", "tracker store id (file path, table or Notion database id); overrides TRACKER_STORE_ID")

	root.AddCommand(
		newRunCmd(opts),
		newBatchCmd(opts),
		newServeCmd(opts),
		newExtractCmd(opts),
		newCheckTrackerCmd(opts),
		newWatchCmd(opts),
	)
	return root
}
