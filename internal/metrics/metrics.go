// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yatube_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "yatube_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	PageCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yatube_page_cache_hits_total",
			Help: "Page fragment cache hits",
		},
		[]string{"fragment"},
	)

	PageCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yatube_page_cache_misses_total",
			Help: "Page fragment cache misses",
		},
		[]string{"fragment"},
	)

	OutboxRelayed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yatube_outbox_events_total",
			Help: "Follow events handed to the relay sender, by outcome",
		},
		[]string{"event", "outcome"},
	)
)

// RecordHTTPRequest records one finished request.
func RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func RecordCacheLookup(fragment string, hit bool) {
	if hit {
		PageCacheHits.WithLabelValues(fragment).Inc()
		return
	}
	PageCacheMisses.WithLabelValues(fragment).Inc()
}
