// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest delivers classified calls to the scholarship alert backend.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/funding-tagger/internal/httputil"
	"github.com/pdiddy/funding-tagger/internal/logging"
	"github.com/pdiddy/funding-tagger/pkg/types"
)

// DefaultURL is the production ingest endpoint.
const DefaultURL = "https://scholarship-alert-backend.onrender.com/ingest/calls"

// ErrRejected is wrapped when the backend answers with a status other than
// 200 or 201.
var ErrRejected = errors.New("call rejected by backend")

// maxErrorBody bounds how much of a rejection body is kept for the error.
const maxErrorBody = 1024

// Receipt describes one delivery.
type Receipt struct {
	// StatusCode is the backend's HTTP status; 0 for dry runs.
	StatusCode int           `json:"status_code" yaml:"status_code"`
	DryRun     bool          `json:"dry_run" yaml:"dry_run"`
	Elapsed    time.Duration `json:"elapsed" yaml:"elapsed"`
}

// RejectedError carries the backend's answer for a refused call.
type RejectedError struct {
	StatusCode int
	Body       string
}

func (e *RejectedError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%v: HTTP %d", ErrRejected, e.StatusCode)
	}
	return fmt.Sprintf("%v: HTTP %d: %s", ErrRejected, e.StatusCode, e.Body)
}

func (e *RejectedError) Unwrap() error { return ErrRejected }

// Client posts calls one at a time.
type Client struct {
	client *http.Client
	cfg    types.IngestConfig
	log    logging.Logger
}

// NewClient returns a Client. When client is nil one is built with
// cfg.Timeout.
func NewClient(client *http.Client, cfg types.IngestConfig, log logging.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	return &Client{client: client, cfg: cfg, log: log}
}

// DryRun reports whether Send skips the network.
func (c *Client) DryRun() bool { return c.cfg.DryRun }

// Send posts call as JSON. 429 and 503 answers are retried with backoff;
// any other status besides 200 and 201 returns a *RejectedError.
func (c *Client) Send(ctx context.Context, call types.Call) (Receipt, error) {
	if c.cfg.DryRun {
		c.log.Info("dry run, not sending",
			logging.String("title", call.Title),
			logging.String("source_url", call.SourceURL),
			logging.String("degree_level", call.DegreeLevel),
			logging.String("field", call.Field),
			logging.String("sdg_tags", call.SDGTags))
		return Receipt{DryRun: true}, nil
	}

	body, err := json.Marshal(call)
	if err != nil {
		return Receipt{}, fmt.Errorf("marshaling call: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return Receipt{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	start := time.Now()
	resp, err := httputil.DoWithRetry(ctx, c.client, req, c.cfg.MaxRetries)
	if err != nil {
		return Receipt{}, fmt.Errorf("posting %s: %w", call.SourceURL, err)
	}
	defer resp.Body.Close()

	receipt := Receipt{StatusCode: resp.StatusCode, Elapsed: time.Since(start)}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return receipt, &RejectedError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
		}
	}
	io.Copy(io.Discard, resp.Body)

	c.log.Debug("call delivered",
		logging.String("source_url", call.SourceURL),
		logging.Int("status", resp.StatusCode),
		logging.Duration("elapsed", receipt.Elapsed))
	return receipt, nil
}
