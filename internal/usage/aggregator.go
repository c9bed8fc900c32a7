package usage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/botbay/botbay/internal/kvstore"
	"github.com/botbay/botbay/internal/traces"
)

// Emitter receives the updated stats after a counter mutation.
type Emitter interface {
	UsageChanged(botID int64, stats Stats)
}

// counters is the in-memory shape of one bot's usage. The user set is an
// owned map; it is never shared with callers or other counters.
type counters struct {
	users    map[string]struct{}
	messages int64
	lastAt   time.Time
}

// storedCounters is the persisted wire shape: users as a sorted array,
// keyed by stringified bot id in the snapshot object.
type storedCounters struct {
	Users           []string  `json:"users"`
	Messages        int64     `json:"messages"`
	LastMessageTime time.Time `json:"lastMessageTime"`
}

// Aggregator owns the usage counters for all bots. Like the entitlement
// service, a single mutex spans the cache update and its persistence
// write.
type Aggregator struct {
	mu      sync.Mutex
	store   kvstore.Store
	logger  *slog.Logger
	emitter Emitter
	bots    map[int64]*counters
}

// Option configures the aggregator.
type Option func(*Aggregator)

// WithEmitter sets the change-event emitter.
func WithEmitter(e Emitter) Option {
	return func(a *Aggregator) { a.emitter = e }
}

// NewAggregator creates a usage aggregator. Call Hydrate before serving.
func NewAggregator(store kvstore.Store, logger *slog.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{
		store:  store,
		logger: logger,
		bots:   make(map[int64]*counters),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Hydrate loads the usage snapshot. Corrupt persisted state is discarded
// with a warning and the aggregator starts empty; the caller never sees
// an error.
func (a *Aggregator) Hydrate(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.bots = make(map[int64]*counters)

	raw, err := a.store.Get(ctx, StorageKey)
	if err != nil {
		if !errors.Is(err, kvstore.ErrKeyNotFound) {
			a.logger.Warn("failed to load usage counters, starting empty", "error", err)
		}
		return
	}

	var stored map[string]storedCounters
	if err := json.Unmarshal(raw, &stored); err != nil {
		a.logger.Warn("corrupt usage snapshot, discarding", "error", err)
		if derr := a.store.Delete(ctx, StorageKey); derr != nil {
			a.logger.Warn("failed to discard corrupt snapshot", "error", derr)
		}
		return
	}

	for key, sc := range stored {
		botID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			a.logger.Warn("skipping usage entry with bad bot id", "key", key)
			continue
		}
		c := &counters{
			users:    make(map[string]struct{}, len(sc.Users)),
			messages: sc.Messages,
			lastAt:   sc.LastMessageTime,
		}
		for _, u := range sc.Users {
			c.users[u] = struct{}{}
		}
		a.bots[botID] = c
	}

	a.logger.Info("usage counters hydrated", "bots", len(a.bots))
}

// AddMessage records one message from an actor against a bot. Counters
// are created on first use; re-seen actors do not grow the user set.
// This is the only mutator that grows counters.
func (a *Aggregator) AddMessage(ctx context.Context, botID int64, actorID string, now time.Time) error {
	ctx, span := traces.StartSpan(ctx, "usage.AddMessage", traces.BotID(botID), traces.ActorID(actorID))
	defer span.End()

	a.mu.Lock()

	c, ok := a.bots[botID]
	if !ok {
		c = &counters{users: make(map[string]struct{})}
		a.bots[botID] = c
	}
	_, seen := c.users[actorID]
	prevLastAt := c.lastAt

	c.users[actorID] = struct{}{}
	c.messages++
	c.lastAt = now

	if err := a.persistLocked(ctx); err != nil {
		// Undo everything so a failed write leaves no phantom message,
		// user, or recency.
		if !ok {
			delete(a.bots, botID)
		} else {
			if !seen {
				delete(c.users, actorID)
			}
			c.messages--
			c.lastAt = prevLastAt
		}
		a.mu.Unlock()
		return err
	}
	stats := statsLocked(c, now)
	a.mu.Unlock()

	MessagesRecordedTotal.Inc()
	a.emit(botID, stats)
	return nil
}

// Stats returns the bot's counters derived against now. A bot with no
// counters yields zeroed stats labelled "never"; this is never an error.
func (a *Aggregator) Stats(botID int64, now time.Time) Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	c, ok := a.bots[botID]
	if !ok {
		return Stats{LastActiveLabel: "never"}
	}
	return statsLocked(c, now)
}

// Reset clears the counters for a bot entirely. Used when a bot is
// decommissioned or deactivated. Resetting an untracked bot is a no-op.
func (a *Aggregator) Reset(ctx context.Context, botID int64) error {
	a.mu.Lock()

	if _, ok := a.bots[botID]; !ok {
		a.mu.Unlock()
		return nil
	}
	delete(a.bots, botID)
	if err := a.persistLocked(ctx); err != nil {
		a.mu.Unlock()
		return err
	}
	a.mu.Unlock()

	UsageResetsTotal.Inc()
	a.logger.Info("usage counters reset", "bot_id", botID)
	a.emit(botID, Stats{LastActiveLabel: "never"})
	return nil
}

// TrackedBots returns the ids of all bots with counters, sorted.
func (a *Aggregator) TrackedBots() []int64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	ids := make([]int64, 0, len(a.bots))
	for id := range a.bots {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (a *Aggregator) persistLocked(ctx context.Context) error {
	stored := make(map[string]storedCounters, len(a.bots))
	for botID, c := range a.bots {
		users := make([]string, 0, len(c.users))
		for u := range c.users {
			users = append(users, u)
		}
		sort.Strings(users)
		stored[strconv.FormatInt(botID, 10)] = storedCounters{
			Users:           users,
			Messages:        c.messages,
			LastMessageTime: c.lastAt,
		}
	}

	raw, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("marshal usage counters: %w", err)
	}
	if err := a.store.Set(ctx, StorageKey, raw); err != nil {
		return fmt.Errorf("persist usage counters: %w", err)
	}
	return nil
}

func (a *Aggregator) emit(botID int64, stats Stats) {
	if a.emitter != nil {
		a.emitter.UsageChanged(botID, stats)
	}
}

func statsLocked(c *counters, now time.Time) Stats {
	return Stats{
		UserCount:       len(c.users),
		MessageCount:    c.messages,
		LastActiveLabel: relativeLabel(now.Sub(c.lastAt)),
		Performance:     performanceScore(c.messages),
	}
}
