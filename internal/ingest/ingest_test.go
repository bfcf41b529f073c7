// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/funding-tagger/internal/httputil"
	"github.com/pdiddy/funding-tagger/internal/logging"
	"github.com/pdiddy/funding-tagger/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

func testCall() types.Call {
	return types.Call{
		Title:           "PhD in Artificial Intelligence for Climate Research",
		HostCountry:     "Canada",
		Field:           "Artificial Intelligence",
		Theme:           "Sustainability",
		DegreeLevel:     "PhD",
		FundingType:     types.FundingTypeUnknown,
		Deadline:        "2026-04-15",
		SourceURL:       "https://example.ca/phd-ai",
		SDGTags:         "SDG13",
		SourceName:      "universitystudy.ca",
		ConfidenceScore: 0.6,
	}
}

func testClient(ts *httptest.Server, cfg types.IngestConfig) *Client {
	cfg.URL = ts.URL + "/ingest/calls"
	return NewClient(ts.Client(), cfg, logging.NewNop())
}

func TestSendPostsJSON(t *testing.T) {
	var got map[string]any
	var header http.Header
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/ingest/calls", r.URL.Path)
		header = r.Header.Clone()
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	c := testClient(ts, types.IngestConfig{
		HTTPConfig: types.HTTPConfig{UserAgent: "ScholarshipAlertBot/1.0"},
		APIKey:     "s3cret",
	})
	receipt, err := c.Send(context.Background(), testCall())
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, receipt.StatusCode)
	assert.False(t, receipt.DryRun)

	assert.Equal(t, "application/json", header.Get("Content-Type"))
	assert.Equal(t, "Bearer s3cret", header.Get("Authorization"))
	assert.Equal(t, "ScholarshipAlertBot/1.0", header.Get("User-Agent"))

	assert.Equal(t, "PhD", got["degree_level"])
	assert.Equal(t, "SDG13", got["sdg_tags"])
	assert.Equal(t, "Unknown", got["funding_type"])
	assert.Equal(t, "2026-04-15", got["deadline"])
	assert.Equal(t, 0.6, got["confidence_score"])
	assert.Len(t, got, 11)
}

func TestSendWithoutAPIKeyOmitsAuthorization(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	receipt, err := testClient(ts, types.IngestConfig{}).Send(context.Background(), testCall())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, receipt.StatusCode)
}

func TestSendRejected(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"validation error", http.StatusUnprocessableEntity, `{"detail":"deadline missing"}`},
		{"accepted is not success", http.StatusAccepted, ""},
		{"server error", http.StatusInternalServerError, "boom\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			receipt, err := testClient(ts, types.IngestConfig{}).Send(context.Background(), testCall())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrRejected)
			assert.Equal(t, tt.status, receipt.StatusCode)

			var rejected *RejectedError
			require.True(t, errors.As(err, &rejected))
			assert.Equal(t, tt.status, rejected.StatusCode)
			assert.Equal(t, trimmed(tt.body), rejected.Body)
		})
	}
}

func trimmed(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\n' {
		return s[:len(s)-1]
	}
	return s
}

func TestSendRetriesThrottling(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var call types.Call
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&call))
		assert.Equal(t, "https://example.ca/phd-ai", call.SourceURL)

		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c := testClient(ts, types.IngestConfig{HTTPConfig: types.HTTPConfig{MaxRetries: 3}})
	receipt, err := c.Send(context.Background(), testCall())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, receipt.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSendDryRun(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer ts.Close()

	core, logs := observer.New(zapcore.InfoLevel)
	cfg := types.IngestConfig{URL: ts.URL, DryRun: true}
	c := NewClient(ts.Client(), cfg, logging.Wrap(zap.New(core)))

	receipt, err := c.Send(context.Background(), testCall())
	require.NoError(t, err)
	assert.True(t, receipt.DryRun)
	assert.True(t, c.DryRun())
	assert.Zero(t, calls.Load())

	entries := logs.FilterMessage("dry run, not sending").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "https://example.ca/phd-ai", entries[0].ContextMap()["source_url"])
}

func TestSendTransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c := testClient(ts, types.IngestConfig{})
	ts.Close()

	_, err := c.Send(context.Background(), testCall())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRejected)
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(nil, types.IngestConfig{HTTPConfig: types.HTTPConfig{Timeout: 20 * time.Second}}, logging.NewNop())
	assert.Equal(t, DefaultURL, c.cfg.URL)
	assert.Equal(t, 20*time.Second, c.client.Timeout)
}
