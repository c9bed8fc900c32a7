// Package usage maintains per-bot usage counters: distinct acting users,
// message volume, and recency. The counters feed dashboards and are
// advisory, not a billing record.
package usage

import (
	"fmt"
	"time"
)

// StorageKey is the durable-store key holding the usage snapshot.
const StorageKey = "botStats"

// Stats is the dashboard-facing view of one bot's counters.
type Stats struct {
	UserCount       int    `json:"userCount"`
	MessageCount    int64  `json:"messageCount"`
	LastActiveLabel string `json:"lastActiveLabel"`
	Performance     int    `json:"performance"`
}

// relativeLabel buckets an elapsed duration into a human-readable recency
// string. Boundaries are strict less-than so a bot at exactly 60 minutes
// reads "1 hour ago", not "60 minutes ago".
func relativeLabel(elapsed time.Duration) string {
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		n := int(elapsed / time.Minute)
		if n == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", n)
	case elapsed < 24*time.Hour:
		n := int(elapsed / time.Hour)
		if n == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", n)
	default:
		n := int(elapsed / (24 * time.Hour))
		if n == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", n)
	}
}

// performanceScore is the dashboard's placeholder scoring function. Its
// exact shape is load-bearing for the UI; keep it as-is.
func performanceScore(messages int64) int {
	if messages <= 0 {
		return 0
	}
	score := 50 + messages
	if score > 100 {
		return 100
	}
	return int(score)
}
