// Package reconciler drives the periodic lifecycle sweeps: the expiry
// reconcile pass and the dashboard refresh tick.
package reconciler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Reconciler is the expiry sweep the timer drives on each pass.
type Reconciler interface {
	Reconcile(ctx context.Context, now time.Time) error
}

// Timer runs the reconcile loop and an independent dashboard refresh
// loop. Reconcile fires immediately on Start, then on the interval;
// refresh only fires on its interval.
type Timer struct {
	reconciler Reconciler
	refresh    func(ctx context.Context, now time.Time)
	interval   time.Duration
	refreshInt time.Duration
	logger     *slog.Logger
	now        func() time.Time

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// Option configures the timer.
type Option func(*Timer)

// WithInterval overrides the reconcile interval.
func WithInterval(d time.Duration) Option {
	return func(t *Timer) { t.interval = d }
}

// WithRefreshInterval overrides the dashboard refresh interval.
func WithRefreshInterval(d time.Duration) Option {
	return func(t *Timer) { t.refreshInt = d }
}

// WithRefresh sets the dashboard refresh callback.
func WithRefresh(fn func(ctx context.Context, now time.Time)) Option {
	return func(t *Timer) { t.refresh = fn }
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(t *Timer) { t.now = now }
}

// NewTimer creates a reconcile timer with the default 60s reconcile and
// 10s refresh cadence.
func NewTimer(reconciler Reconciler, logger *slog.Logger, opts ...Option) *Timer {
	t := &Timer{
		reconciler: reconciler,
		interval:   60 * time.Second,
		refreshInt: 10 * time.Second,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start begins both loops. Call in a goroutine. A second Start while
// running is a no-op.
func (t *Timer) Start(ctx context.Context) {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		t.logger.Warn("reconcile timer already running")
		return
	}
	t.running = true
	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	stop, done := t.stop, t.done
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.running = false
		t.mu.Unlock()
		close(done)
	}()

	// First sweep runs up front so a restart does not leave expired
	// records active for a full interval.
	t.runReconcile(ctx)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	refresher := time.NewTicker(t.refreshInt)
	defer refresher.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			t.runReconcile(ctx)
		case <-refresher.C:
			if t.refresh != nil {
				t.refresh(ctx, t.now())
			}
		}
	}
}

// Stop signals the loops to stop and waits for them to exit. Safe to
// call more than once, and before Start.
func (t *Timer) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	stop, done := t.stop, t.done
	t.mu.Unlock()

	select {
	case stop <- struct{}{}:
	case <-done:
	}
	<-done
}

func (t *Timer) runReconcile(ctx context.Context) {
	if err := t.reconciler.Reconcile(ctx, t.now()); err != nil {
		t.logger.Warn("reconcile pass failed", "error", err)
	}
}
