// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/pdiddy/funding-tagger/internal/httputil"
	"github.com/pdiddy/funding-tagger/internal/logging"
	"github.com/pdiddy/funding-tagger/pkg/types"
)

// ErrStatus is wrapped when a source page answers with a non-2xx status.
var ErrStatus = errors.New("unexpected HTTP status")

// maxPageBytes bounds how much of a listing page is read.
const maxPageBytes = 10 << 20

// Fetcher downloads listing pages politely: every request waits on a shared
// rate limiter and 429/503 answers are retried with backoff.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	cfg     types.FetchConfig
	log     logging.Logger
}

// NewFetcher returns a Fetcher. A non-positive cfg.Rate disables pacing.
func NewFetcher(client *http.Client, cfg types.FetchConfig, log logging.Logger) *Fetcher {
	limit := rate.Limit(cfg.Rate)
	if cfg.Rate <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Fetcher{
		client:  client,
		limiter: rate.NewLimiter(limit, burst),
		cfg:     cfg,
		log:     log,
	}
}

// Fetch GETs pageURL and returns the body.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := httputil.DoWithRetry(ctx, f.client, req, f.cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: HTTP %d from %s", ErrStatus, resp.StatusCode, pageURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", pageURL, err)
	}
	f.log.Debug("fetched page", logging.String("url", pageURL), logging.Int("bytes", len(body)))
	return body, nil
}
