// Package metrics holds the Prometheus collectors of the shop.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Transitions counts applied checkout events by event and resulting step.
	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_transitions_total",
		Help: "Checkout events applied, by event and next step.",
	}, []string{"event", "step"})

	// Ignored counts events dropped as misrouted or stale.
	Ignored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_events_ignored_total",
		Help: "Checkout events that did not apply to the current step.",
	}, []string{"event", "step"})

	// HandlerErrors counts failed events by kind (data, provider, conflict, other).
	HandlerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_handler_errors_total",
		Help: "Checkout events that failed, by error kind.",
	}, []string{"kind"})

	// ProviderRequests observes pricing provider latency by operation and outcome.
	ProviderRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shop_provider_request_seconds",
		Help:    "Pricing, image and exchange rate calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "status"})

	// Invoices counts sent invoices by payment method.
	Invoices = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_invoices_total",
		Help: "Invoices sent, by payment method.",
	}, []string{"method"})

	// Payments counts confirmed payments.
	Payments = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shop_payments_total",
		Help: "Successful payments.",
	})
)
