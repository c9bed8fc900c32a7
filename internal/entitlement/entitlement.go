// Package entitlement decides whether a bot instance is inside its
// trial/subscription window and enforces per-plan activation quotas.
package entitlement

import (
	"fmt"
	"time"

	"github.com/botbay/botbay/internal/plan"
)

// TrialDuration is the length of the activation window granted by
// Activate. Named so it can vary by plan later; do not inline.
const TrialDuration = 72 * time.Hour

// StorageKey is the durable-store key holding the activation snapshot.
const StorageKey = "activeBots"

// Status represents a record's lifecycle state. It is derived from the
// expiry timestamp and never authoritative when persisted.
type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
)

// ActivationRecord is one trial/subscription window for one bot instance.
// The persisted Status field is a cache; readers must recompute it from
// ExpiresAt against the current time.
type ActivationRecord struct {
	BotID       int64     `json:"botId"`
	BotName     string    `json:"botName"`
	ActivatedAt time.Time `json:"activatedAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Status      Status    `json:"status"`
}

// StatusAt derives the live status: active iff now is strictly before the
// expiry instant. At now == expiresAt the record is already expired.
func StatusAt(expiresAt, now time.Time) Status {
	if now.Before(expiresAt) {
		return StatusActive
	}
	return StatusExpired
}

// QuotaExceededError is returned when an activation would exceed the
// plan's active-bot quota. It is an expected business outcome, not a
// fault, and carries what the UI needs to render an upgrade prompt.
type QuotaExceededError struct {
	Plan  plan.Plan
	Limit int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("entitlement: plan %q allows at most %d active bots", e.Plan, e.Limit)
}
