package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hub-backend/internal/agents"
	"hub-backend/internal/analyses"
	"hub-backend/internal/llm"
	"hub-backend/internal/services/health"
	"hub-backend/internal/shared/config"
	"hub-backend/internal/usage"
)

func newTestRouter(t *testing.T, cfg config.Config, healthSvc *health.Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg.MockUserID = "user-123"

	tiers, err := usage.LoadTiers("")
	require.NoError(t, err)
	meter, err := usage.NewMeter(usage.NewMemoryStore(), tiers, usage.MeterConfig{})
	require.NoError(t, err)
	repo := analyses.NewMemoryRepo()
	svc := agents.NewService(meter, llm.Unconfigured{}, repo, agents.Models{Default: "m"})

	return NewRouter(RouterDeps{
		Config:          cfg,
		Health:          healthSvc,
		UsageHandler:    usage.NewHandler(meter),
		AgentHandler:    agents.NewHandler(svc),
		AnalysisHandler: analyses.NewHandler(repo),
	})
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthReflectsDependencies(t *testing.T) {
	healthy := health.NewService()
	r := newTestRouter(t, config.Config{Env: "production"}, healthy)
	w := serve(r, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	broken := health.NewService()
	broken.Register("postgres", health.PingFunc(func(context.Context) error { return errors.New("down") }))
	r = newTestRouter(t, config.Config{Env: "production"}, broken)
	w = serve(r, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var report health.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "down", report.Dependencies["postgres"])
}

func TestDevRoutesOnlyInDev(t *testing.T) {
	r := newTestRouter(t, config.Config{Env: "dev"}, nil)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/api/v1/dev/subscription/reset", "").Code)

	r = newTestRouter(t, config.Config{Env: "production"}, nil)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodPost, "/api/v1/dev/subscription/reset", "").Code)
}

func TestAgentRunsAreRateLimited(t *testing.T) {
	r := newTestRouter(t, config.Config{Env: "production", RateLimitRPS: 0.01, RateLimitBurst: 1}, nil)

	first := serve(r, http.MethodPost, "/api/v1/agents/unknown/run", "{}")
	assert.Equal(t, http.StatusNotFound, first.Code)

	second := serve(r, http.MethodPost, "/api/v1/agents/unknown/run", "{}")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))

	// Usage polling has its own, larger bucket.
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/v1/subscription/usage/heuristics", "").Code)
}

func TestUnconfiguredModelIsUpstreamUnavailable(t *testing.T) {
	r := newTestRouter(t, config.Config{Env: "production"}, nil)
	w := serve(r, http.MethodPost, "/api/v1/agents/patterns/run", `{"challenge":"Checkout"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "upstream_unavailable")

	// No usage was consumed by the failed run.
	w = serve(r, http.MethodGet, "/api/v1/subscription/usage/patterns", "")
	require.Equal(t, http.StatusOK, w.Code)
	var decision usage.Decision
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decision))
	assert.Equal(t, 0, decision.Used)
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t, config.Config{Env: "production"}, nil)
	w := serve(r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "agent_runs_started_total")
}

func TestAddr(t *testing.T) {
	assert.Equal(t, ":8080", Addr(""))
	assert.Equal(t, ":9000", Addr("9000"))
	assert.Equal(t, ":9000", Addr(":9000"))
}
