package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		notificationsCreatedTotal,
		notificationsDeduplicatedTotal,
	)
}

var (
	notificationsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Notifications persisted, by template code.",
		},
		[]string{"code"},
	)

	notificationsDeduplicatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_deduplicated_total",
			Help: "Notification creations swallowed by the unique-key constraint, by template code.",
		},
		[]string{"code"},
	)
)

func IncNotificationCreated(code string) {
	notificationsCreatedTotal.WithLabelValues(norm(code)).Inc()
}

func IncNotificationDeduplicated(code string) {
	notificationsDeduplicatedTotal.WithLabelValues(norm(code)).Inc()
}
