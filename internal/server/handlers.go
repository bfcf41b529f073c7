// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pdiddy/funding-tagger/internal/tagger"
)

// ClassifyRequest is the body of POST /v1/classify.
type ClassifyRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ClassifyResponse is the flat classification, plus per-axis scores when
// explain=true was requested.
type ClassifyResponse struct {
	tagger.Record
	Scores    map[tagger.Axis]tagger.Scores `json:"scores,omitempty"`
	Fallbacks []tagger.Axis                 `json:"fallbacks,omitempty"`
}

// BatchRequest is the body of POST /v1/classify/batch.
type BatchRequest struct {
	Items []ClassifyRequest `json:"items"`
}

// BatchResponse holds one result per request item, in order.
type BatchResponse struct {
	Results []ClassifyResponse `json:"results"`
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: s.version,
		Uptime:  time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) rules(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.Rules())
}

func (s *Server) classify(c *gin.Context) {
	explain, ok := explainParam(c)
	if !ok {
		return
	}

	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, s.classifyOne(req, explain))
}

func (s *Server) classifyBatch(c *gin.Context) {
	explain, ok := explainParam(c)
	if !ok {
		return
	}

	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if len(req.Items) > s.cfg.MaxBatch {
		c.JSON(http.StatusBadRequest, errorResponse{
			Error: fmt.Sprintf("batch of %d items exceeds the limit of %d", len(req.Items), s.cfg.MaxBatch),
		})
		return
	}

	resp := BatchResponse{Results: make([]ClassifyResponse, len(req.Items))}
	for i, item := range req.Items {
		resp.Results[i] = s.classifyOne(item, explain)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) classifyOne(req ClassifyRequest, explain bool) ClassifyResponse {
	x := s.engine.Explain(req.Title, req.Description)
	s.metrics.observe(x)

	resp := ClassifyResponse{Record: x.Result.Record()}
	if explain {
		resp.Scores = make(map[tagger.Axis]tagger.Scores, len(tagger.Axes))
		for _, axis := range tagger.Axes {
			scores := x.Scores(axis)
			if scores == nil {
				scores = tagger.Scores{}
			}
			resp.Scores[axis] = scores
		}
		resp.Fallbacks = x.Fallbacks()
	}
	return resp
}

// explainParam reads ?explain=. It writes a 400 and returns ok=false when
// the value is not a boolean.
func explainParam(c *gin.Context) (explain, ok bool) {
	v := c.Query("explain")
	if v == "" {
		return false, true
	}
	explain, err := strconv.ParseBool(v)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid explain value %q", v)})
		return false, false
	}
	return explain, true
}
