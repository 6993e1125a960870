package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	requestsTotal          *prometheus.CounterVec
	latencySeconds         *prometheus.HistogramVec
	transitionsTotal       *prometheus.CounterVec
	accessDeniedTotal      *prometheus.CounterVec
	feedbackDeliveredTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aptrack_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		latencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aptrack_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		transitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aptrack_transitions_total",
			Help: "Successful review-workflow state transitions by resource and action.",
		}, []string{"resource", "action"})

		accessDeniedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aptrack_access_denied_total",
			Help: "Access policy denials by resource kind.",
		}, []string{"resource"})

		feedbackDeliveredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aptrack_feedback_delivered_total",
			Help: "Feedback notifications delivered by channel.",
		}, []string{"channel"})

		prometheus.MustRegister(requestsTotal, latencySeconds, transitionsTotal, accessDeniedTotal, feedbackDeliveredTotal)
	})
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return requestsTotal
}

// Latency exposes the latency histogram for API requests.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return latencySeconds
}

// Transitions exposes the counter for workflow state transitions.
func Transitions() *prometheus.CounterVec {
	RegisterMetrics()
	return transitionsTotal
}

// AccessDenied exposes the counter for policy denials.
func AccessDenied() *prometheus.CounterVec {
	RegisterMetrics()
	return accessDeniedTotal
}

// FeedbackDelivered exposes the counter for feedback deliveries.
func FeedbackDelivered() *prometheus.CounterVec {
	RegisterMetrics()
	return feedbackDeliveredTotal
}
