// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the fetch and ingest stages.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// RetryBaseDelay controls the base duration for exponential backoff.
// Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

// MaxRetryAfter caps how long a server-supplied Retry-After can make us wait.
var MaxRetryAfter = 2 * time.Minute

const defaultMaxRetries = 3

// Retryable reports whether a response status is worth retrying: the server
// is rate limiting (429) or temporarily unavailable (503).
func Retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// DoWithRetry executes req and retries on 429 and 503 responses with
// exponential backoff starting at RetryBaseDelay (2s, 4s, 8s, ...). A
// Retry-After header given in seconds replaces the computed delay, up to
// MaxRetryAfter.
//
// When maxRetries is 0 the default (3) is used. Requests with a body must
// have GetBody set (http.NewRequest does this for in-memory readers) so the
// body can be replayed. If the context is cancelled during a wait the
// function returns ctx.Err(). After exhausting retries the last response is
// returned so the caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		attemptReq := req.Clone(ctx)
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewinding request body: %w", err)
			}
			attemptReq.Body = body
		}

		resp, err := client.Do(attemptReq)
		if err != nil {
			return nil, err
		}

		if !Retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		wait := backoff(attempt, resp.Header.Get("Retry-After"))

		// Drain and close the body before retrying.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func backoff(attempt int, retryAfter string) time.Duration {
	if secs, err := strconv.Atoi(retryAfter); err == nil && secs >= 0 {
		return min(time.Duration(secs)*time.Second, MaxRetryAfter)
	}
	return RetryBaseDelay << attempt
}
