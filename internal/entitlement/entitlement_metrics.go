package entitlement

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ActivationsTotal counts activation attempts by outcome.
	ActivationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "botbay",
			Name:      "activations_total",
			Help:      "Total activation attempts by outcome.",
		},
		[]string{"result"},
	)

	// ActiveBots tracks the number of currently active activation records.
	ActiveBots = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "botbay",
			Name:      "active_bots",
			Help:      "Number of activation records currently inside their window.",
		},
	)

	// ReconcileRunsTotal counts reconciliation passes.
	ReconcileRunsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "botbay",
			Name:      "reconcile_runs_total",
			Help:      "Total entitlement reconciliation passes.",
		},
	)

	// EntitlementOpsTotal counts entitlement operations by type.
	EntitlementOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "botbay",
			Name:      "entitlement_operations_total",
			Help:      "Total entitlement operations by type.",
		},
		[]string{"type"},
	)

	// EntitlementOpDuration observes operation latency by type.
	EntitlementOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "botbay",
			Name:      "entitlement_operation_duration_seconds",
			Help:      "Entitlement operation duration in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(
		ActivationsTotal,
		ActiveBots,
		ReconcileRunsTotal,
		EntitlementOpsTotal,
		EntitlementOpDuration,
	)
}

// observeOp increments the operation counter and returns a function to observe duration.
func observeOp(opType string) func() {
	EntitlementOpsTotal.WithLabelValues(opType).Inc()
	start := time.Now()
	return func() {
		EntitlementOpDuration.WithLabelValues(opType).Observe(time.Since(start).Seconds())
	}
}
