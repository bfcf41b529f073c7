// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the per-request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with requests
	// (e.g. "ScholarshipAlertBot/1.0").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds retries on 429/503 responses (0 uses the default).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// FetchConfig holds settings for downloading source listing pages.
type FetchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Rate is the sustained number of page requests per second (default 1).
	Rate float64 `json:"rate" yaml:"rate" mapstructure:"rate"`

	// Burst is the number of requests allowed back to back (default 1).
	Burst int `json:"burst" yaml:"burst" mapstructure:"burst"`
}

// IngestConfig holds settings for delivering classified calls to the backend.
type IngestConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// URL is the backend endpoint that accepts one call per POST.
	URL string `json:"url" yaml:"url" mapstructure:"url"`

	// APIKey is sent as a bearer token when set. Usually loaded from
	// .secrets/ingest-api-key rather than the config file.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// DryRun logs calls instead of posting them.
	DryRun bool `json:"dry_run" yaml:"dry_run" mapstructure:"dry_run"`
}

// LedgerConfig holds settings for the local delivery ledger.
type LedgerConfig struct {
	// Path is the SQLite database file (e.g. "data/ledger.db").
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Development switches to human-readable console output.
	Development bool `json:"development" yaml:"development" mapstructure:"development"`
}

// ServeConfig holds settings for the classification HTTP API.
type ServeConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// MaxBatch caps the items accepted by one batch request (default 500).
	MaxBatch int `json:"max_batch" yaml:"max_batch" mapstructure:"max_batch"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	// RulesFile points at a YAML rule set; empty uses the built-in tables.
	RulesFile string `json:"rules_file" yaml:"rules_file" mapstructure:"rules_file"`

	// DeadlineWindow is added to today's date when a listing has no deadline.
	DeadlineWindow time.Duration `json:"deadline_window" yaml:"deadline_window" mapstructure:"deadline_window"`

	Fetch  FetchConfig  `json:"fetch" yaml:"fetch" mapstructure:"fetch"`
	Ingest IngestConfig `json:"ingest" yaml:"ingest" mapstructure:"ingest"`
	Ledger LedgerConfig `json:"ledger" yaml:"ledger" mapstructure:"ledger"`
	Log    LogConfig    `json:"log" yaml:"log" mapstructure:"log"`
	Serve  ServeConfig  `json:"serve" yaml:"serve" mapstructure:"serve"`
}
