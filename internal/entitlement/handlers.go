package entitlement

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/botbay/botbay/internal/plan"
)

// Handler provides HTTP endpoints for entitlement operations.
type Handler struct {
	service    *Service
	plans      PlanProvider
	resetUsage func(ctx context.Context, botID int64) error
}

// NewHandler creates a new entitlement handler.
func NewHandler(service *Service, plans PlanProvider) *Handler {
	return &Handler{service: service, plans: plans}
}

// WithUsageReset makes deactivation also clear the bot's usage counters.
func (h *Handler) WithUsageReset(reset func(ctx context.Context, botID int64) error) *Handler {
	h.resetUsage = reset
	return h
}

// RegisterRoutes sets up entitlement routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/plan", h.GetPlan)
	r.GET("/bots", h.ListBots)
	r.POST("/bots/:id/activate", h.ActivateBot)
	r.DELETE("/bots/:id", h.DeactivateBot)
	r.GET("/bots/:id/status", h.GetBotStatus)
}

// GetPlan handles GET /v1/plan
func (h *Handler) GetPlan(c *gin.Context) {
	now := time.Now()
	currentPlan := h.plans.CurrentPlan(c.Request.Context())
	limit := plan.LimitFor(currentPlan)
	active := h.service.ActiveCount(now)

	resp := gin.H{
		"plan":       currentPlan,
		"limit":      limit,
		"unlimited":  plan.IsUnlimited(limit),
		"activeBots": active,
	}
	if !plan.IsUnlimited(limit) {
		remaining := limit - active
		if remaining < 0 {
			remaining = 0
		}
		resp["remaining"] = remaining
	}
	c.JSON(http.StatusOK, resp)
}

// ListBots handles GET /v1/bots
func (h *Handler) ListBots(c *gin.Context) {
	records := h.service.List(time.Now())
	c.JSON(http.StatusOK, gin.H{
		"bots":  records,
		"count": len(records),
	})
}

// ActivateBot handles POST /v1/bots/:id/activate
func (h *Handler) ActivateBot(c *gin.Context) {
	botID, ok := parseBotID(c)
	if !ok {
		return
	}

	var req struct {
		BotName string `json:"botName" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "botName is required",
		})
		return
	}

	rec, err := h.service.Activate(c.Request.Context(), botID, req.BotName, time.Now())
	if err != nil {
		var quotaErr *QuotaExceededError
		if errors.As(err, &quotaErr) {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "quota_exceeded",
				"message": quotaErr.Error(),
				"plan":    quotaErr.Plan,
				"limit":   quotaErr.Limit,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to activate bot",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"bot": rec})
}

// DeactivateBot handles DELETE /v1/bots/:id
func (h *Handler) DeactivateBot(c *gin.Context) {
	botID, ok := parseBotID(c)
	if !ok {
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), botID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to deactivate bot",
		})
		return
	}

	// A decommissioned bot takes its counters with it.
	if h.resetUsage != nil {
		if err := h.resetUsage(c.Request.Context(), botID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "internal_error",
				"message": "Bot deactivated but usage counters could not be cleared",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"deactivated": botID})
}

// GetBotStatus handles GET /v1/bots/:id/status
func (h *Handler) GetBotStatus(c *gin.Context) {
	botID, ok := parseBotID(c)
	if !ok {
		return
	}

	rec, found := h.service.GetStatus(botID, time.Now())
	if !found {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "No activation record for this bot",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bot":    rec,
		"active": rec.Status == StatusActive,
	})
}

func parseBotID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_bot_id",
			"message": "Bot id must be an integer",
		})
		return 0, false
	}
	return id, true
}
