package usage

import "github.com/prometheus/client_golang/prometheus"

var (
	// MessagesRecordedTotal counts messages recorded across all bots.
	MessagesRecordedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "botbay",
			Name:      "messages_recorded_total",
			Help:      "Total messages recorded across all bots.",
		},
	)

	// UsageResetsTotal counts explicit counter resets.
	UsageResetsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "botbay",
			Name:      "usage_resets_total",
			Help:      "Total explicit usage counter resets.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		MessagesRecordedTotal,
		UsageResetsTotal,
	)
}
