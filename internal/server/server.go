// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the classification engine over HTTP with gin and
// publishes Prometheus metrics about what it classified.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pdiddy/funding-tagger/internal/logging"
	"github.com/pdiddy/funding-tagger/internal/tagger"
	"github.com/pdiddy/funding-tagger/pkg/types"
)

// Defaults applied by New.
const (
	DefaultAddr     = ":8080"
	DefaultMaxBatch = 500

	shutdownTimeout = 10 * time.Second
)

// Server serves the classification API.
type Server struct {
	engine   *tagger.Engine
	cfg      types.ServeConfig
	version  string
	log      logging.Logger
	router   *gin.Engine
	registry *prometheus.Registry
	metrics  *Metrics
	started  time.Time
}

// New builds the router. version is reported by the health endpoint.
func New(engine *tagger.Engine, cfg types.ServeConfig, version string, log logging.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = DefaultMaxBatch
	}

	reg := prometheus.NewRegistry()
	s := &Server{
		engine:   engine,
		cfg:      cfg,
		version:  version,
		log:      log,
		registry: reg,
		metrics:  newMetrics(reg),
		started:  time.Now(),
	}

	r := gin.New()
	r.Use(s.recovery(), s.instrument())

	r.GET("/health", s.health)
	r.HEAD("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	v1 := r.Group("/v1")
	v1.POST("/classify", s.classify)
	v1.POST("/classify/batch", s.classifyBatch)
	v1.GET("/rules", s.rules)

	s.router = r
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully, letting in-flight requests finish.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", logging.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down HTTP server", logging.Duration("timeout", shutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.log.Info("HTTP server stopped")
	return nil
}

// instrument logs each request and counts it by route template and status.
func (s *Server) instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		s.metrics.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()

		if route == "/health" || route == "/metrics" {
			return
		}
		s.log.Info("HTTP request",
			logging.String("method", c.Request.Method),
			logging.String("route", route),
			logging.Int("status", status),
			logging.Duration("duration", time.Since(start)),
			logging.String("client_ip", c.ClientIP()))
	}
}

func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, err any) {
		s.log.Error("panic in handler",
			logging.String("path", c.Request.URL.Path),
			logging.String("panic", fmt.Sprint(err)))
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	})
}
