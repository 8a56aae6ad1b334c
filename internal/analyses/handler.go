package analyses

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hub-backend/internal/shared/server/middleware"
	"hub-backend/internal/shared/server/respond"
)

const defaultListLimit = 20

// Handler serves a caller's analysis history.
type Handler struct {
	Repo Repo
}

// NewHandler constructs a Handler.
func NewHandler(repo Repo) *Handler {
	return &Handler{Repo: repo}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/analyses", h.listAnalyses)
	rg.GET("/analyses/:id", h.getAnalysis)
}

func (h *Handler) getAnalysis(c *gin.Context) {
	analysisID := c.Param("id")
	if analysisID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "analysis id is required", nil)
		return
	}
	c.Set("analysisId", analysisID)

	analysis, err := h.Repo.GetByID(c.Request.Context(), analysisID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch analysis", nil)
		}
		return
	}
	if analysis.UserID != middleware.UserIDFromContext(c) {
		respond.Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)
		return
	}

	respond.JSON(c, http.StatusOK, analysis)
}

func (h *Handler) listAnalyses(c *gin.Context) {
	if isGuest, ok := c.Get("isGuest"); ok {
		if guest, ok2 := isGuest.(bool); ok2 && guest {
			respond.Error(c, http.StatusUnauthorized, "login_required", "Login required to view history", nil)
			return
		}
	}

	userID := middleware.UserIDFromContext(c)

	limit := defaultListLimit
	offset := 0

	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit < 0 {
		limit = 0
	}

	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	items, err := h.Repo.ListByUser(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list analyses", nil)
		return
	}

	resp := make([]gin.H, 0, len(items))
	for _, a := range items {
		resp = append(resp, gin.H{
			"analysisId": a.ID,
			"agentId":    a.AgentID,
			"status":     a.Status,
			"createdAt":  a.CreatedAt,
		})
	}

	respond.JSON(c, http.StatusOK, resp)
}
