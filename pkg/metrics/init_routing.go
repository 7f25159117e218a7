package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initRoutingMetrics() {
	r.PathRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "route_path_requests_total",
			Help: "Weighted path requests by outcome",
		},
		[]string{"status"}, // found, not_found, error
	)

	r.PathCost = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "route_path_cost",
			Help:    "Total cost of found paths",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	r.PathHops = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "route_path_hops",
			Help:    "Edges on found paths",
			Buckets: prometheus.LinearBuckets(0, 1, 12),
		},
	)

	r.PathSearchDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "route_path_search_duration_seconds",
			Help:    "Time spent searching and applying path load",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
	)

	r.RouteRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "route_hybrid_requests_total",
			Help: "Hybrid routing requests by outcome",
		},
		[]string{"status"}, // ok, stalled, error
	)

	r.RouteTotalDelay = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "route_hybrid_total_delay_ms",
			Help:    "Summed delay of routed requests",
			Buckets: prometheus.LinearBuckets(50, 50, 12),
		},
	)

	r.RouteHops = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "route_hybrid_hops",
			Help:    "Hops taken by routed requests",
			Buckets: prometheus.LinearBuckets(0, 1, 12),
		},
	)

	r.RouteDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "route_hybrid_duration_seconds",
			Help:    "Time spent routing one request",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
	)

	r.HopDecisionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "route_hybrid_hop_decisions_total",
			Help: "Hop decisions by source",
		},
		[]string{"source"}, // shortest, ant
	)
}
