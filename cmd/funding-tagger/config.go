// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/funding-tagger/internal/ingest"
	"github.com/pdiddy/funding-tagger/internal/ledger"
	"github.com/pdiddy/funding-tagger/internal/logging"
	"github.com/pdiddy/funding-tagger/internal/pipeline"
	"github.com/pdiddy/funding-tagger/internal/secrets"
	"github.com/pdiddy/funding-tagger/internal/server"
	"github.com/pdiddy/funding-tagger/internal/tagger"
	"github.com/pdiddy/funding-tagger/pkg/types"
)

const userAgent = "ScholarshipAlertBot/1.0"

func setDefaults() {
	viper.SetDefault("rules_file", "")
	viper.SetDefault("deadline_window", pipeline.DefaultDeadlineWindow)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.development", false)

	viper.SetDefault("fetch.timeout", 30*time.Second)
	viper.SetDefault("fetch.user_agent", userAgent)
	viper.SetDefault("fetch.max_retries", 3)
	viper.SetDefault("fetch.rate", 1.0)
	viper.SetDefault("fetch.burst", 1)

	viper.SetDefault("ingest.url", ingest.DefaultURL)
	viper.SetDefault("ingest.timeout", 20*time.Second)
	viper.SetDefault("ingest.user_agent", userAgent)
	viper.SetDefault("ingest.max_retries", 3)
	viper.SetDefault("ingest.dry_run", false)
	viper.SetDefault("ingest.api_key", "")

	viper.SetDefault("ledger.path", ledger.DefaultPath)

	viper.SetDefault("serve.addr", server.DefaultAddr)
	viper.SetDefault("serve.max_batch", server.DefaultMaxBatch)
}

// loadConfig reads the merged flag, env, file and default settings. The
// ingest API key falls back to .secrets/ingest-api-key.
func loadConfig() types.PipelineConfig {
	var cfg types.PipelineConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Warn("config decode failed, using defaults where unset", logging.Err(err))
	}
	cfg.Ingest.APIKey = loadedSecrets.Get(secrets.IngestAPIKey, cfg.Ingest.APIKey)
	return cfg
}

// buildEngine compiles the configured rules file, or the built-in tables
// when none is set.
func buildEngine(cfg types.PipelineConfig) (*tagger.Engine, error) {
	if cfg.RulesFile == "" {
		return tagger.Default(), nil
	}
	rules, err := tagger.LoadRules(cfg.RulesFile)
	if err != nil {
		return nil, err
	}
	engine, err := tagger.New(rules)
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", cfg.RulesFile, err)
	}
	return engine, nil
}
