package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts outbound API requests by method, route, and status.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stoop_requests_total",
		Help: "Total number of outbound API requests",
	}, []string{"method", "route", "status"})

	// RequestLatency records outbound request latency by method and route.
	RequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stoop_request_latency_seconds",
		Help:    "Outbound API request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// UploadBytes counts bytes sent through the multipart upload paths.
	UploadBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stoop_upload_bytes_total",
		Help: "Total bytes uploaded via multipart requests",
	})

	// CacheHits counts query-cache hits by key prefix.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stoop_cache_hits_total",
		Help: "Query cache hits by key prefix",
	}, []string{"prefix"})

	// CacheMisses counts query-cache misses by key prefix.
	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stoop_cache_misses_total",
		Help: "Query cache misses by key prefix",
	}, []string{"prefix"})

	// CacheInvalidations counts invalidations by key prefix.
	CacheInvalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stoop_cache_invalidations_total",
		Help: "Query cache invalidations by key prefix",
	}, []string{"prefix"})

	// SocketEvents counts realtime events received by event name.
	SocketEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stoop_socket_events_total",
		Help: "Realtime socket events received by name",
	}, []string{"event"})

	// SocketReconnects counts reconnect attempts made by the realtime bridge.
	SocketReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stoop_socket_reconnects_total",
		Help: "Total realtime socket reconnect attempts",
	})
)

// TrackRequest returns a function that records request latency when called
// (e.g. defer).
func TrackRequest(method, route string) func() {
	start := time.Now()
	return func() {
		RequestLatency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
