package reconciler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botbay/botbay/internal/logging"
)

type countingReconciler struct {
	calls atomic.Int64
}

func (c *countingReconciler) Reconcile(_ context.Context, _ time.Time) error {
	c.calls.Add(1)
	return nil
}

func TestTimer_FirstSweepIsImmediate(t *testing.T) {
	rec := &countingReconciler{}
	timer := NewTimer(rec, logging.Nop(), WithInterval(time.Hour), WithRefreshInterval(time.Hour))

	go timer.Start(context.Background())
	defer timer.Stop()

	require.Eventually(t, func() bool {
		return rec.calls.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestTimer_SweepsOnInterval(t *testing.T) {
	rec := &countingReconciler{}
	timer := NewTimer(rec, logging.Nop(), WithInterval(10*time.Millisecond), WithRefreshInterval(time.Hour))

	go timer.Start(context.Background())
	defer timer.Stop()

	require.Eventually(t, func() bool {
		return rec.calls.Load() >= 3
	}, time.Second, 5*time.Millisecond)
}

func TestTimer_RefreshRunsIndependently(t *testing.T) {
	rec := &countingReconciler{}
	var refreshes atomic.Int64
	timer := NewTimer(rec, logging.Nop(),
		WithInterval(time.Hour),
		WithRefreshInterval(10*time.Millisecond),
		WithRefresh(func(_ context.Context, _ time.Time) { refreshes.Add(1) }),
	)

	go timer.Start(context.Background())
	defer timer.Stop()

	require.Eventually(t, func() bool {
		return refreshes.Load() >= 2
	}, time.Second, 5*time.Millisecond)
	// Only the immediate first sweep has run.
	assert.Equal(t, int64(1), rec.calls.Load())
}

func TestTimer_StopIsIdempotent(t *testing.T) {
	rec := &countingReconciler{}
	timer := NewTimer(rec, logging.Nop(), WithInterval(time.Hour), WithRefreshInterval(time.Hour))

	go timer.Start(context.Background())
	require.Eventually(t, func() bool {
		return rec.calls.Load() == 1
	}, time.Second, 5*time.Millisecond)

	timer.Stop()
	timer.Stop()
	// Stop before Start is also a no-op.
	NewTimer(rec, logging.Nop()).Stop()
}

func TestTimer_DoubleStartIsNoop(t *testing.T) {
	rec := &countingReconciler{}
	timer := NewTimer(rec, logging.Nop(), WithInterval(time.Hour), WithRefreshInterval(time.Hour))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		timer.Start(context.Background())
	}()
	require.Eventually(t, func() bool {
		return rec.calls.Load() == 1
	}, time.Second, 5*time.Millisecond)

	// Second Start returns immediately without another sweep.
	timer.Start(context.Background())
	assert.Equal(t, int64(1), rec.calls.Load())

	timer.Stop()
	wg.Wait()
}

func TestTimer_StopsOnContextCancel(t *testing.T) {
	rec := &countingReconciler{}
	timer := NewTimer(rec, logging.Nop(), WithInterval(time.Hour), WithRefreshInterval(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		timer.Start(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool {
		return rec.calls.Load() == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer did not stop on context cancel")
	}
}
