package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hub-backend/internal/agents"
	"hub-backend/internal/analyses"
	"hub-backend/internal/services/health"
	"hub-backend/internal/shared/config"
	"hub-backend/internal/shared/metrics"
	"hub-backend/internal/shared/server/middleware"
	"hub-backend/internal/shared/server/respond"
	"hub-backend/internal/usage"
)

const (
	groupAgentRun  = "AGENT_RUN"
	groupUsageRead = "USAGE_READ"
)

// RouterDeps carries the handlers the router mounts. Nil handlers are skipped.
type RouterDeps struct {
	Config          config.Config
	Health          *health.Service
	UsageHandler    *usage.Handler
	AgentHandler    *agents.Handler
	AnalysisHandler *analyses.Handler
	RateLimiter     *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.Identity(cfg.MockUserID),
		middleware.RateLimit(rateLimitConfig(cfg, deps.RateLimiter)),
	)

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService()
	}

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		report := healthSvc.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})
	if deps.UsageHandler != nil {
		deps.UsageHandler.RegisterRoutes(api)
	}
	if deps.AgentHandler != nil {
		deps.AgentHandler.RegisterRoutes(api)
	}
	if deps.AnalysisHandler != nil {
		deps.AnalysisHandler.RegisterRoutes(api)
	}
	if isDevLike(cfg.Env) && deps.UsageHandler != nil {
		dev := api.Group("/dev")
		deps.UsageHandler.RegisterDevRoutes(dev)
	}

	return r
}

// rateLimitConfig throttles agent runs at the configured rate and lets
// usage polling through at five times that.
func rateLimitConfig(cfg config.Config, limiter *middleware.RateLimiter) middleware.RateLimitConfig {
	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = 1
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 10
	}
	return middleware.RateLimitConfig{
		Limiter: limiter,
		GroupFor: func(c *gin.Context) string {
			switch c.FullPath() {
			case "/api/v1/agents/:agentId/run":
				return groupAgentRun
			case "/api/v1/subscription/usage/:agentId", "/api/v1/subscription":
				if c.Request.Method == http.MethodGet {
					return groupUsageRead
				}
			}
			return ""
		},
		Rules: map[string]middleware.RateLimitRule{
			groupAgentRun:  {Rate: rps, Burst: burst},
			groupUsageRead: {Rate: rps * 5, Burst: burst * 5},
		},
	}
}

func isDevLike(env string) bool {
	return env == "dev" || env == "local"
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
