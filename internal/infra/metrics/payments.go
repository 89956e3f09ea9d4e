package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		paymentsTotal,
		webhookCallbacksTotal,
		signatureFailuresTotal,
		paymentsSweptTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payment status transitions (created/approved/declined/expired).",
		},
		[]string{"status"},
	)

	// outcome: approved|declined|intermediate|replayed|bad_payload|bad_signature|not_found|parse_swallowed
	webhookCallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_callbacks_total",
			Help: "Provider webhook deliveries by processing outcome.",
		},
		[]string{"outcome"},
	)

	signatureFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "signature_failures_total",
			Help: "Webhook callbacks rejected for a merchant signature mismatch.",
		},
	)

	paymentsSweptTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_swept_total",
			Help: "Stale CREATED payments force-expired by the sweeper.",
		},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncPayment(status string) {
	paymentsTotal.WithLabelValues(norm(status)).Inc()
}

func IncWebhook(outcome string) {
	webhookCallbacksTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncSignatureFailure() {
	signatureFailuresTotal.Inc()
}

func AddPaymentsSwept(n int) {
	paymentsSweptTotal.Add(float64(n))
}
