// Package metrics exposes the publish engine's Prometheus instrumentation.
// Grounded on the teacher's internal/metrics.Registry, constructed once in
// cmd/gateway/main.go as metrics.NewRegistry() and threaded into every
// component constructor that needs to record telemetry.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry bundles every counter/gauge the publish engine emits.
type Registry struct {
	NotificationsPublished prometheus.Counter
	KeepAlivesSent         prometheus.Counter
	RetransmissionEvicted  prometheus.Counter
	SubscriptionsExpired   prometheus.Counter
	SubscriptionsDeleted   prometheus.Counter
	SendFailures           prometheus.Counter
	ActiveSubscriptions    prometheus.Gauge
	TickDuration           prometheus.Histogram
}

// NewRegistry constructs and registers the publish engine's metrics against
// the default Prometheus registerer, following the teacher's convention of
// a single Registry struct built once at startup.
func NewRegistry() *Registry {
	r := &Registry{
		NotificationsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "publish_engine",
			Name:      "notifications_published_total",
			Help:      "Total NotificationMessages sent with at least one notification.",
		}),
		KeepAlivesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "publish_engine",
			Name:      "keep_alives_sent_total",
			Help:      "Total empty keep-alive PublishResponses sent.",
		}),
		RetransmissionEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "publish_engine",
			Name:      "retransmission_evicted_total",
			Help:      "Total retransmission queue entries evicted due to capacity.",
		}),
		SubscriptionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "publish_engine",
			Name:      "subscriptions_expired_total",
			Help:      "Total subscriptions deleted due to lifetime expiry.",
		}),
		SubscriptionsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "publish_engine",
			Name:      "subscriptions_deleted_total",
			Help:      "Total subscriptions deleted for any reason.",
		}),
		SendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "publish_engine",
			Name:      "send_failures_total",
			Help:      "Total PublishResponse sends that returned an error.",
		}),
		ActiveSubscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "publish_engine",
			Name:      "active_subscriptions",
			Help:      "Current number of live subscriptions across all sessions.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "publish_engine",
			Name:      "tick_duration_seconds",
			Help:      "Wall-clock duration of a single publish tick, including any moreNotifications recursion.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	prometheus.MustRegister(
		r.NotificationsPublished,
		r.KeepAlivesSent,
		r.RetransmissionEvicted,
		r.SubscriptionsExpired,
		r.SubscriptionsDeleted,
		r.SendFailures,
		r.ActiveSubscriptions,
		r.TickDuration,
	)

	return r
}
