package agents

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hub-backend/internal/extract"
	"hub-backend/internal/llm"
	"hub-backend/internal/shared/server/middleware"
	"hub-backend/internal/shared/server/respond"
	"hub-backend/internal/usage"
)

const transientRetryAfterSeconds = 5

// Handler exposes the agent catalog and runs.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches agent routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/agents", h.listAgents)
	rg.POST("/agents/:agentId/run", h.runAgent)
}

func (h *Handler) listAgents(c *gin.Context) {
	respond.JSON(c, http.StatusOK, gin.H{"agents": h.Svc.Catalog.All()})
}

func (h *Handler) runAgent(c *gin.Context) {
	agentID := c.Param("agentId")
	c.Set("agentId", agentID)

	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid json body", nil)
		return
	}
	preview, _ := strconv.ParseBool(c.Query("preview"))

	out, err := h.Svc.Run(c.Request.Context(), RunRequest{
		UserID:  middleware.UserIDFromContext(c),
		AgentID: agentID,
		Preview: preview,
		Input:   in,
	})
	if err != nil {
		writeRunError(c, err, out)
		return
	}

	c.Set("analysisId", out.AnalysisID)
	respond.JSON(c, http.StatusOK, out)
}

func writeRunError(c *gin.Context, err error, out RunResult) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid input", verr.Issues)
	case errors.Is(err, ErrAgentNotFound), errors.Is(err, usage.ErrUnknownAgent):
		respond.Error(c, http.StatusNotFound, "unknown_agent", "agent not found", nil)
	case errors.Is(err, usage.ErrUnknownTier):
		respond.Error(c, http.StatusNotFound, "unknown_tier", "plan not found", nil)
	case errors.Is(err, usage.ErrLimitReached):
		respond.Error(c, http.StatusTooManyRequests, "limit_reached", "Você atingiu o limite do seu plano para este agente. Faça upgrade para continuar.", out.Usage)
	case errors.Is(err, usage.ErrPeriodExpired):
		respond.Error(c, http.StatusPaymentRequired, "period_expired", "subscription period expired", nil)
	case errors.Is(err, llm.ErrUpstreamTimeout):
		c.Header("Retry-After", strconv.Itoa(transientRetryAfterSeconds))
		respond.Error(c, http.StatusGatewayTimeout, "upstream_timeout", "model provider timed out", gin.H{"retryable": true})
	case errors.Is(err, llm.ErrUpstreamUnavailable):
		if llm.Transient(err) {
			c.Header("Retry-After", strconv.Itoa(transientRetryAfterSeconds))
		}
		respond.Error(c, http.StatusBadGateway, "upstream_unavailable", "model provider unavailable", gin.H{"retryable": true})
	case errors.Is(err, extract.ErrIndexOutOfRange):
		respond.Error(c, http.StatusBadGateway, "image_index_out_of_range", "model referenced an image that was not submitted", nil)
	case errors.Is(err, extract.ErrMalformedModelOutput):
		respond.Error(c, http.StatusBadGateway, "malformed_model_output", "model returned an unreadable analysis", nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to run agent", nil)
	}
}
