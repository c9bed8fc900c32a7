package usage

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Handler provides HTTP endpoints for usage counters.
type Handler struct {
	agg *Aggregator
}

// NewHandler creates a new usage handler.
func NewHandler(agg *Aggregator) *Handler {
	return &Handler{agg: agg}
}

// RegisterRoutes sets up usage routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/bots/:id/messages", h.RecordMessage)
	r.GET("/bots/:id/stats", h.GetStats)
	r.POST("/bots/:id/stats/reset", h.ResetStats)
}

// RecordMessage handles POST /v1/bots/:id/messages
func (h *Handler) RecordMessage(c *gin.Context) {
	botID, ok := parseBotID(c)
	if !ok {
		return
	}

	var req struct {
		ActorID string `json:"actorId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "actorId is required",
		})
		return
	}

	now := time.Now()
	if err := h.agg.AddMessage(c.Request.Context(), botID, req.ActorID, now); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to record message",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": h.agg.Stats(botID, now)})
}

// GetStats handles GET /v1/bots/:id/stats
func (h *Handler) GetStats(c *gin.Context) {
	botID, ok := parseBotID(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"botId": botID,
		"stats": h.agg.Stats(botID, time.Now()),
	})
}

// ResetStats handles POST /v1/bots/:id/stats/reset
func (h *Handler) ResetStats(c *gin.Context) {
	botID, ok := parseBotID(c)
	if !ok {
		return
	}

	if err := h.agg.Reset(c.Request.Context(), botID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to reset usage counters",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reset": botID})
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
