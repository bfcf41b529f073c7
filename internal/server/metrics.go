// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pdiddy/funding-tagger/internal/tagger"
)

// Metrics holds the server's Prometheus collectors. Each Server registers
// them on its own registry so several servers can live in one process.
type Metrics struct {
	Classifications prometheus.Counter
	Fallbacks       *prometheus.CounterVec
	Confidence      prometheus.Histogram
	Requests        *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Classifications: f.NewCounter(prometheus.CounterOpts{
			Name: "funding_tagger_classifications_total",
			Help: "Texts classified through the API",
		}),
		Fallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "funding_tagger_fallbacks_total",
			Help: "Classifications that fell back to the default label, by axis",
		}, []string{"axis"}),
		Confidence: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "funding_tagger_confidence",
			Help:    "Confidence score of each classification",
			Buckets: []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		}),
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "funding_tagger_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"route", "code"}),
	}
}

func (m *Metrics) observe(x tagger.Explanation) {
	m.Classifications.Inc()
	m.Confidence.Observe(x.Result.ConfidenceScore)
	for _, axis := range x.Fallbacks() {
		m.Fallbacks.WithLabelValues(string(axis)).Inc()
	}
}
