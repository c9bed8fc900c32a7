package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/botbay/botbay/internal/plan"
	"github.com/botbay/botbay/internal/usage"
)

// BotView is one row of the dashboard: activation record joined with
// usage counters.
type BotView struct {
	BotID       int64       `json:"botId"`
	BotName     string      `json:"botName"`
	Status      string      `json:"status"`
	ActivatedAt time.Time   `json:"activatedAt"`
	ExpiresAt   time.Time   `json:"expiresAt"`
	Usage       usage.Stats `json:"usage"`
}

// DashboardSnapshot is the view-model pushed to websocket clients and
// served on the dashboard endpoint.
type DashboardSnapshot struct {
	Plan          plan.Plan `json:"plan"`
	Limit         int       `json:"limit"`
	Unlimited     bool      `json:"unlimited"`
	ActiveBots    int       `json:"activeBots"`
	TotalBots     int       `json:"totalBots"`
	TotalMessages int64     `json:"totalMessages"`
	Bots          []BotView `json:"bots"`
	GeneratedAt   time.Time `json:"generatedAt"`
}

func (s *Server) dashboardSnapshot(ctx context.Context, now time.Time) DashboardSnapshot {
	records := s.entitlements.List(now)
	currentPlan := s.entitlements.Plans().CurrentPlan(ctx)
	limit := plan.LimitFor(currentPlan)

	snap := DashboardSnapshot{
		Plan:        currentPlan,
		Limit:       limit,
		Unlimited:   plan.IsUnlimited(limit),
		ActiveBots:  s.entitlements.ActiveCount(now),
		TotalBots:   len(records),
		Bots:        make([]BotView, 0, len(records)),
		GeneratedAt: now.UTC(),
	}

	for _, rec := range records {
		stats := s.usage.Stats(rec.BotID, now)
		snap.TotalMessages += stats.MessageCount
		snap.Bots = append(snap.Bots, BotView{
			BotID:       rec.BotID,
			BotName:     rec.BotName,
			Status:      string(rec.Status),
			ActivatedAt: rec.ActivatedAt,
			ExpiresAt:   rec.ExpiresAt,
			Usage:       stats,
		})
	}
	return snap
}

// dashboardHandler handles GET /v1/dashboard
func (s *Server) dashboardHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.dashboardSnapshot(c.Request.Context(), time.Now()))
}
