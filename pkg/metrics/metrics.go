package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Recomputes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_recomputes_total",
		Help: "Notification feeds recomputed from a post snapshot, by viewer role.",
	}, []string{"role"})

	RecomputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "notifications_recompute_seconds",
		Help:    "Time spent turning one post snapshot into a notification feed.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	})

	SubscriptionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifications_subscription_failures_total",
		Help: "Errors reported by post store subscriptions.",
	})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "notifications_active_sessions",
		Help: "Viewer sessions currently holding a post store subscription.",
	})
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
