// checkout-reconciler/pkg/metrics/metrics.go
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// label "service" lets one query compare the HTTP services
	PaymentRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "payment",
			Name:      "requests_total",
			Help:      "Total HTTP requests per service",
		},
		[]string{"service", "status", "method"},
	)

	PaymentRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "payment",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration per service",
			Buckets: []float64{
				0.01, 0.02, 0.03, 0.05, 0.08, 0.12,
				0.2, 0.3, 0.5, 0.8, 1.2, 2, 3, 5,
				10, 20, 40,
			},
		},
		[]string{"service", "status"},
	)

	ReconcileDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "payment",
			Subsystem: "reconcile",
			Name:      "decisions_total",
			Help:      "Reconciliation decisions by outcome and source",
		},
		[]string{"outcome", "source"},
	)

	ReconcileTicks = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "payment",
			Subsystem: "reconcile",
			Name:      "ticks",
			Help:      "Poll ticks spent before a decision",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		},
	)

	GatewayFetchAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "payment",
			Subsystem: "gateway",
			Name:      "fetch_attempts_total",
			Help:      "Gateway status fetch attempts by result",
		},
		[]string{"result"},
	)

	DedupeCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "payment",
			Subsystem: "gateway",
			Name:      "dedupe_calls_total",
			Help:      "Status checks served by a fresh fetch or a shared one",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		PaymentRequestsTotal,
		PaymentRequestDuration,
		ReconcileDecisionsTotal,
		ReconcileTicks,
		GatewayFetchAttemptsTotal,
		DedupeCallsTotal,
	)
}

// Helpers so handlers stay tidy
func IncRequest(service, status, method string) {
	PaymentRequestsTotal.WithLabelValues(service, status, method).Inc()
}
func ObserveDuration(service, status string, seconds float64) {
	PaymentRequestDuration.WithLabelValues(service, status).Observe(seconds)
}

func ObserveDecision(outcome, source string, ticks int) {
	ReconcileDecisionsTotal.WithLabelValues(outcome, source).Inc()
	ReconcileTicks.Observe(float64(ticks))
}

func IncFetchAttempt(result string) {
	GatewayFetchAttemptsTotal.WithLabelValues(result).Inc()
}

func IncDedupe(shared bool) {
	kind := "fresh"
	if shared {
		kind = "shared"
	}
	DedupeCallsTotal.WithLabelValues(kind).Inc()
}
