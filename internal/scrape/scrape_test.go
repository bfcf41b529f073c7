// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/funding-tagger/internal/httputil"
	"github.com/pdiddy/funding-tagger/internal/logging"
	"github.com/pdiddy/funding-tagger/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

func testFetcher(ts *httptest.Server) *Fetcher {
	return NewFetcher(ts.Client(), types.FetchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:    5 * time.Second,
			UserAgent:  "funding-tagger-test/0.1",
			MaxRetries: 2,
		},
	}, logging.NewNop())
}

// newSiteServer serves both built-in sources' fixtures and a broken page.
func newSiteServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/universitystudy/":
			fmt.Fprint(w, universityStudyHTML)
		case "/positions/":
			fmt.Fprint(w, scholarshipPositionsHTML)
		case "/ua":
			fmt.Fprint(w, r.Header.Get("User-Agent"))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestFetchSendsUserAgent(t *testing.T) {
	ts := newSiteServer(t)
	defer ts.Close()

	body, err := testFetcher(ts).Fetch(context.Background(), ts.URL+"/ua")
	require.NoError(t, err)
	assert.Equal(t, "funding-tagger-test/0.1", string(body))
}

func TestFetchNon2xx(t *testing.T) {
	ts := newSiteServer(t)
	defer ts.Close()

	_, err := testFetcher(ts).Fetch(context.Background(), ts.URL+"/missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStatus)
	assert.Contains(t, err.Error(), "HTTP 404")
}

func TestFetchCancelledContext(t *testing.T) {
	ts := newSiteServer(t)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testFetcher(ts).Fetch(ctx, ts.URL+"/ua")
	assert.Error(t, err)
}

func TestNewFetcherRateLimit(t *testing.T) {
	f := NewFetcher(http.DefaultClient, types.FetchConfig{Rate: 2, Burst: 3}, logging.NewNop())
	assert.Equal(t, 3, f.limiter.Burst())
	assert.InDelta(t, 2.0, float64(f.limiter.Limit()), 0.0001)

	f = NewFetcher(http.DefaultClient, types.FetchConfig{}, logging.NewNop())
	assert.Equal(t, 1, f.limiter.Burst())
	assert.True(t, f.limiter.Limit() > 1e300, "zero rate should disable pacing")
}

func TestScrapeKeepsSourceOrderAndIsolatesFailures(t *testing.T) {
	ts := newSiteServer(t)
	defer ts.Close()

	sources := []Source{
		&ScholarshipPositions{PageURL: ts.URL + "/positions/"},
		&UniversityStudy{PageURL: ts.URL + "/gone/"},
		&UniversityStudy{PageURL: ts.URL + "/universitystudy/"},
	}

	results := Scrape(context.Background(), testFetcher(ts), sources, logging.NewNop())
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	assert.Len(t, results[0].Listings, 2)
	assert.Same(t, sources[0], results[0].Source)

	assert.ErrorIs(t, results[1].Err, ErrStatus)
	assert.Empty(t, results[1].Listings)

	assert.NoError(t, results[2].Err)
	assert.Len(t, results[2].Listings, 2)
}
