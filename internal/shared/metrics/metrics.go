// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var registry = prometheus.NewRegistry()

var (
	// Transitions counts lifecycle transitions by name and outcome (ok, conflict, precondition, error).
	Transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "membership",
		Name:      "transitions_total",
		Help:      "Membership lifecycle transitions by outcome.",
	}, []string{"transition", "outcome"})

	// PaymentCharges counts payment intents by outcome (created, succeeded, failed, canceled, error).
	PaymentCharges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "membership",
		Name:      "payment_charges_total",
		Help:      "Payment intents by outcome.",
	}, []string{"outcome"})

	// Registrations counts registration attempts by outcome.
	Registrations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "membership",
		Name:      "registrations_total",
		Help:      "Registration attempts by outcome.",
	}, []string{"outcome"})

	// HTTPRequests counts served requests by route template, method and status.
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "membership",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "membership",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	// Notifications counts notification deliveries by event and outcome.
	Notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "membership",
		Name:      "notifications_total",
		Help:      "Member notifications by event and outcome.",
	}, []string{"event", "outcome"})
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		Transitions,
		PaymentCharges,
		Registrations,
		Notifications,
		HTTPRequests,
		HTTPDuration,
	)
}

// Handler serves the registry in the Prometheus exposition format
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
