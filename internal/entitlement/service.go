package entitlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/botbay/botbay/internal/kvstore"
	"github.com/botbay/botbay/internal/plan"
	"github.com/botbay/botbay/internal/traces"
)

// PlanProvider supplies the account's current plan. In production this is
// backed by the billing/session system; here it is an injected collaborator.
type PlanProvider interface {
	CurrentPlan(ctx context.Context) plan.Plan
}

// StaticPlanProvider is a PlanProvider pinned to one plan (from config).
type StaticPlanProvider struct {
	Plan plan.Plan
}

func (p StaticPlanProvider) CurrentPlan(context.Context) plan.Plan {
	return p.Plan
}

// Emitter receives a fresh snapshot after every state change, including
// reconcile runs where only derived statuses moved. Observers (dashboard,
// realtime hub) subscribe through this instead of polling the store.
type Emitter interface {
	EntitlementChanged(records []ActivationRecord)
}

// Service owns the activation records: an in-memory cache hydrated from
// the durable store and written back synchronously on every mutation.
// One mutex spans both the cache update and its persistence write so the
// pair behaves as a single atomic unit.
type Service struct {
	mu      sync.Mutex
	store   kvstore.Store
	plans   PlanProvider
	emitter Emitter
	logger  *slog.Logger
	trial   time.Duration
	records []ActivationRecord
}

// Option configures the service.
type Option func(*Service)

// WithEmitter sets the change-event emitter.
func WithEmitter(e Emitter) Option {
	return func(s *Service) { s.emitter = e }
}

// WithTrialDuration overrides the default activation window length.
func WithTrialDuration(d time.Duration) Option {
	return func(s *Service) { s.trial = d }
}

// NewService creates an entitlement service. Call Hydrate before serving.
func NewService(store kvstore.Store, plans PlanProvider, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		plans:  plans,
		logger: logger,
		trial:  TrialDuration,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Plans returns the plan provider the service quotas against.
func (s *Service) Plans() PlanProvider {
	return s.plans
}

// Hydrate loads the activation snapshot from the durable store. Malformed
// persisted state is treated as "no data": the corrupt key is discarded,
// a warning is logged, and the service starts empty. Hydrate never fails
// the caller.
func (s *Service) Hydrate(ctx context.Context) []ActivationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.store.Get(ctx, StorageKey)
	if err != nil {
		if !errors.Is(err, kvstore.ErrKeyNotFound) {
			s.logger.Warn("failed to load activation records, starting empty", "error", err)
		}
		s.records = nil
		return nil
	}

	var records []ActivationRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		s.logger.Warn("corrupt activation snapshot, discarding", "error", err)
		if derr := s.store.Delete(ctx, StorageKey); derr != nil {
			s.logger.Warn("failed to discard corrupt snapshot", "error", derr)
		}
		s.records = nil
		return nil
	}

	// The stored status is only a cache; recompute against now.
	now := time.Now()
	for i := range records {
		records[i].Status = StatusAt(records[i].ExpiresAt, now)
	}
	s.records = records

	ActiveBots.Set(float64(countActive(records, now)))
	s.logger.Info("activation records hydrated", "count", len(records))
	return snapshot(records)
}

// Activate starts (or restarts) the trial window for a bot.
//
// Re-activating a bot that already has a record re-arms its window in
// place: no quota check, record count stays 1. A new activation is gated
// by the plan quota counting currently-active records; on rejection the
// store is left untouched and a *QuotaExceededError is returned.
func (s *Service) Activate(ctx context.Context, botID int64, botName string, now time.Time) (*ActivationRecord, error) {
	ctx, span := traces.StartSpan(ctx, "entitlement.Activate", traces.BotID(botID))
	defer span.End()
	defer observeOp("activate")()

	s.mu.Lock()

	for i := range s.records {
		if s.records[i].BotID == botID {
			prev := s.records[i]
			s.records[i].BotName = botName
			s.records[i].ActivatedAt = now
			s.records[i].ExpiresAt = now.Add(s.trial)
			s.records[i].Status = StatusActive
			rec := s.records[i]
			if err := s.persistLocked(ctx, now); err != nil {
				// Restore the old window so the cache never holds a
				// re-arm the store did not accept.
				s.records[i] = prev
				s.mu.Unlock()
				return nil, err
			}
			snap := snapshot(s.records)
			s.mu.Unlock()

			ActivationsTotal.WithLabelValues("rearmed").Inc()
			s.logger.Info("activation re-armed", "bot_id", botID, "expires_at", rec.ExpiresAt)
			s.emit(snap)
			return &rec, nil
		}
	}

	currentPlan := s.plans.CurrentPlan(ctx)
	limit := plan.LimitFor(currentPlan)
	if !plan.IsUnlimited(limit) && countActive(s.records, now) >= limit {
		s.mu.Unlock()
		ActivationsTotal.WithLabelValues("quota_exceeded").Inc()
		return nil, &QuotaExceededError{Plan: currentPlan, Limit: limit}
	}

	rec := ActivationRecord{
		BotID:       botID,
		BotName:     botName,
		ActivatedAt: now,
		ExpiresAt:   now.Add(s.trial),
		Status:      StatusActive,
	}
	s.records = append(s.records, rec)
	if err := s.persistLocked(ctx, now); err != nil {
		// Roll back the cache so a failed write leaves no partial mutation.
		s.records = s.records[:len(s.records)-1]
		s.mu.Unlock()
		return nil, err
	}
	snap := snapshot(s.records)
	s.mu.Unlock()

	ActivationsTotal.WithLabelValues("activated").Inc()
	s.logger.Info("bot activated", "bot_id", botID, "bot_name", botName, "expires_at", rec.ExpiresAt)
	s.emit(snap)
	return &rec, nil
}

// Deactivate removes the record for a bot. Removal is idempotent: a
// missing record is not an error and causes no write.
func (s *Service) Deactivate(ctx context.Context, botID int64) error {
	defer observeOp("deactivate")()

	s.mu.Lock()

	idx := -1
	for i := range s.records {
		if s.records[i].BotID == botID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}

	removed := s.records[idx]
	s.records = append(s.records[:idx], s.records[idx+1:]...)
	if err := s.persistLocked(ctx, time.Now()); err != nil {
		// Restore on failed write.
		s.records = append(s.records[:idx], append([]ActivationRecord{removed}, s.records[idx:]...)...)
		s.mu.Unlock()
		return err
	}
	snap := snapshot(s.records)
	s.mu.Unlock()

	s.logger.Info("bot deactivated", "bot_id", botID)
	s.emit(snap)
	return nil
}

// IsActive reports whether a record exists for the bot and its window is
// still open at now.
func (s *Service) IsActive(botID int64, now time.Time) bool {
	rec, ok := s.GetStatus(botID, now)
	return ok && rec.Status == StatusActive
}

// GetStatus returns the record with its status freshly derived against
// now, or false if the bot has no record.
func (s *Service) GetStatus(botID int64, now time.Time) (ActivationRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].BotID == botID {
			rec := s.records[i]
			rec.Status = StatusAt(rec.ExpiresAt, now)
			return rec, true
		}
	}
	return ActivationRecord{}, false
}

// List returns all records with statuses derived against now. Expired
// records remain listed until explicitly deactivated.
func (s *Service) List(now time.Time) []ActivationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := snapshot(s.records)
	for i := range out {
		out[i].Status = StatusAt(out[i].ExpiresAt, now)
	}
	return out
}

// ActiveCount returns the number of records active at now.
func (s *Service) ActiveCount(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return countActive(s.records, now)
}

// Reconcile recomputes every record's status against now and persists the
// snapshot. Observers are notified even when nothing but derived status
// changed. Reconcile is idempotent, so a missed tick needs no catch-up.
//
// No clock-skew protection: if the wall clock moves backward, a record
// can legitimately un-expire here.
func (s *Service) Reconcile(ctx context.Context, now time.Time) error {
	ctx, span := traces.StartSpan(ctx, "entitlement.Reconcile")
	defer span.End()
	defer observeOp("reconcile")()

	s.mu.Lock()

	for i := range s.records {
		s.records[i].Status = StatusAt(s.records[i].ExpiresAt, now)
	}
	if err := s.persistLocked(ctx, now); err != nil {
		s.mu.Unlock()
		return err
	}
	snap := snapshot(s.records)
	s.mu.Unlock()

	ReconcileRunsTotal.Inc()
	s.emit(snap)
	return nil
}

// persistLocked writes the current records to the durable store and
// refreshes the active-bots gauge. Callers must hold s.mu.
func (s *Service) persistLocked(ctx context.Context, now time.Time) error {
	raw, err := json.Marshal(s.records)
	if err != nil {
		return fmt.Errorf("marshal activation records: %w", err)
	}
	if err := s.store.Set(ctx, StorageKey, raw); err != nil {
		return fmt.Errorf("persist activation records: %w", err)
	}
	ActiveBots.Set(float64(countActive(s.records, now)))
	return nil
}

func (s *Service) emit(records []ActivationRecord) {
	if s.emitter != nil {
		s.emitter.EntitlementChanged(records)
	}
}

func countActive(records []ActivationRecord, now time.Time) int {
	n := 0
	for i := range records {
		if StatusAt(records[i].ExpiresAt, now) == StatusActive {
			n++
		}
	}
	return n
}

func snapshot(records []ActivationRecord) []ActivationRecord {
	if records == nil {
		return nil
	}
	out := make([]ActivationRecord, len(records))
	copy(out, records)
	return out
}
