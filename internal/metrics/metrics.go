// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Check-in outcomes recorded by CheckIns.
const (
	ResultCreated  = "created"
	ResultConflict = "conflict"
	ResultNotFound = "not_found"
	ResultInvalid  = "invalid"
	ResultError    = "error"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkin",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "checkin",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	ActivitiesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "checkin",
		Name:      "activities_created_total",
		Help:      "Activities persisted.",
	})

	CheckIns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkin",
		Name:      "checkins_total",
		Help:      "Check-in attempts by result.",
	}, []string{"result"})

	QREncode = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "checkin",
		Name:      "qr_encode_seconds",
		Help:      "Time spent rendering QR codes.",
		Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1},
	})
)

// ObserveHTTP records one finished request.
func ObserveHTTP(method, route, status string, elapsed time.Duration) {
	HTTPRequests.WithLabelValues(method, route, status).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
