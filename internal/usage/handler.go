package usage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"hub-backend/internal/shared/server/middleware"
	"hub-backend/internal/shared/server/respond"
)

// Handler exposes the subscription endpoints.
type Handler struct {
	Meter *Meter
}

// NewHandler constructs a Handler.
func NewHandler(meter *Meter) *Handler {
	return &Handler{Meter: meter}
}

// RegisterRoutes attaches subscription routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/subscription", h.getStatus)
	rg.PATCH("/subscription", h.changePlan)
	rg.GET("/subscription/plans", h.listPlans)
	rg.PUT("/subscription/checkout", h.checkout)
	rg.POST("/subscription/usage", h.consume)
	rg.GET("/subscription/usage/:agentId", h.check)
}

// RegisterDevRoutes attaches dev-only subscription routes.
func (h *Handler) RegisterDevRoutes(rg *gin.RouterGroup) {
	rg.POST("/subscription/reset", h.reset)
}

type consumeRequest struct {
	AgentID string `json:"agentId"`
}

type planRequest struct {
	PlanID string `json:"planId"`
}

func (h *Handler) getStatus(c *gin.Context) {
	status, err := h.Meter.Status(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err, "failed to fetch subscription")
		return
	}
	respond.JSON(c, http.StatusOK, status)
}

func (h *Handler) listPlans(c *gin.Context) {
	respond.JSON(c, http.StatusOK, gin.H{"plans": h.Meter.Tiers().All()})
}

func (h *Handler) check(c *gin.Context) {
	agentID := strings.TrimSpace(c.Param("agentId"))
	c.Set("agentId", agentID)
	decision, err := h.Meter.Check(c.Request.Context(), middleware.UserIDFromContext(c), agentID)
	if err != nil {
		writeError(c, err, "failed to check usage")
		return
	}
	respond.JSON(c, http.StatusOK, decision)
}

func (h *Handler) consume(c *gin.Context) {
	var req consumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid json body", nil)
		return
	}
	agentID := strings.TrimSpace(req.AgentID)
	if agentID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "agentId is required", nil)
		return
	}
	c.Set("agentId", agentID)

	decision, err := h.Meter.TryConsume(c.Request.Context(), middleware.UserIDFromContext(c), agentID)
	if err != nil {
		writeError(c, err, "failed to record usage")
		return
	}
	if !decision.Allowed {
		respond.Error(c, http.StatusTooManyRequests, "limit_reached", "Usage limit reached for this agent", decision)
		return
	}
	respond.JSON(c, http.StatusOK, decision)
}

func (h *Handler) changePlan(c *gin.Context) {
	planID, ok := bindPlanID(c)
	if !ok {
		return
	}
	rec, err := h.Meter.ChangeTier(c.Request.Context(), middleware.UserIDFromContext(c), planID)
	if err != nil {
		writeError(c, err, "failed to change plan")
		return
	}
	respond.JSON(c, http.StatusOK, rec)
}

func (h *Handler) checkout(c *gin.Context) {
	planID, ok := bindPlanID(c)
	if !ok {
		return
	}
	tier, found := h.Meter.Tiers().Get(planID)
	if !found {
		writeError(c, fmt.Errorf("%w: %s", ErrUnknownTier, planID), "")
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"planId":      tier.ID,
		"checkoutUrl": CheckoutURL(tier),
	})
}

func (h *Handler) reset(c *gin.Context) {
	rec, err := h.Meter.Reset(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err, "failed to reset usage")
		return
	}
	respond.JSON(c, http.StatusOK, rec)
}

// CheckoutURL returns the stubbed checkout destination for tier. No payment
// provider is contacted.
func CheckoutURL(tier Tier) string {
	switch {
	case tier.IsEnterprise:
		return "/contact?plan=" + tier.ID
	case tier.Price == nil || *tier.Price == 0:
		return "/subscription/confirm?plan=" + tier.ID
	default:
		return "/subscription/checkout?plan=" + tier.ID + "&price=" + strconv.FormatFloat(*tier.Price, 'f', -1, 64)
	}
}

func bindPlanID(c *gin.Context) (string, bool) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid json body", nil)
		return "", false
	}
	planID := strings.TrimSpace(req.PlanID)
	if planID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "planId is required", nil)
		return "", false
	}
	return planID, true
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrUnknownAgent):
		respond.Error(c, http.StatusNotFound, "unknown_agent", "agent not found", nil)
	case errors.Is(err, ErrUnknownTier):
		respond.Error(c, http.StatusNotFound, "unknown_tier", "plan not found", nil)
	case errors.Is(err, ErrLimitReached):
		respond.Error(c, http.StatusTooManyRequests, "limit_reached", "Usage limit reached for this agent", nil)
	case errors.Is(err, ErrPeriodExpired):
		respond.Error(c, http.StatusPaymentRequired, "period_expired", "subscription period expired", nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
