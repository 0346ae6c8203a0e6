// Package metrics wires the live leaderboard pipeline's Prometheus
// collectors: websocket transport counters (renamed from the odin_ws_*
// series this package started from) plus gauges/histograms for the
// ingestion and broadcast stages the transport-only original had no
// need for.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry wraps every Prometheus collector used by the live pipeline.
type Registry struct {
	ActiveConnections prometheus.Gauge
	MessagesPublished prometheus.Counter
	MessagesDelivered prometheus.Counter
	AcceptErrors      prometheus.Counter
	BroadcastDropped  prometheus.Counter

	PerformanceIngested   prometheus.Counter
	FanoutMessagesDropped prometheus.Counter
	EloRecomputeSeconds   prometheus.Histogram
	BroadcastWaitSeconds  prometheus.Histogram
	ProcessCPUPercent     prometheus.Gauge
}

// NewRegistry creates and registers every collector against the default
// Prometheus registry.
func NewRegistry() *Registry {
	return &Registry{
		ActiveConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "live_elo_ws_connections_active",
			Help: "Number of active WebSocket connections.",
		}),
		MessagesPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "live_elo_ws_messages_published_total",
			Help: "Total number of diff frames handed to the hub for broadcast.",
		}),
		MessagesDelivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "live_elo_ws_messages_delivered_total",
			Help: "Total number of diff frames successfully queued to a client.",
		}),
		AcceptErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "live_elo_ws_accept_errors_total",
			Help: "Total number of WebSocket handshake failures.",
		}),
		BroadcastDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "live_elo_ws_clients_disconnected_on_lag_total",
			Help: "Total number of clients force-disconnected for lagging past the outbound queue capacity.",
		}),
		PerformanceIngested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "live_elo_performance_increments_total",
			Help: "Total number of (leaderboard, author, delta) increments applied to the shared store.",
		}),
		FanoutMessagesDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "live_elo_fanout_messages_dropped_total",
			Help: "Total number of messages dropped because a fan-out subscriber was lagging.",
		}),
		EloRecomputeSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "live_elo_recompute_seconds",
			Help:    "Time taken to recompute every leaderboard's ranked table on a cache miss.",
			Buckets: prometheus.DefBuckets,
		}),
		BroadcastWaitSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "live_elo_broadcast_wait_seconds",
			Help:    "Time a broadcast tick spent waiting on the resource guard's rate limiter.",
			Buckets: prometheus.DefBuckets,
		}),
		ProcessCPUPercent: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "live_elo_process_cpu_percent",
			Help: "Best-effort host-wide CPU utilization, sampled via the resource guard package.",
		}),
	}
}

// Handler returns an HTTP handler exposing the metrics in Prometheus
// text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.Handler()
}
