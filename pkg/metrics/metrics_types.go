package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// HTTP Metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge
	HTTPResponseSizeBytes *prometheus.HistogramVec
	HTTPRateLimited       prometheus.Counter

	// Path search Metrics
	PathRequestsTotal  *prometheus.CounterVec
	PathCost           prometheus.Histogram
	PathHops           prometheus.Histogram
	PathSearchDuration prometheus.Histogram

	// Hybrid routing Metrics
	RouteRequestsTotal *prometheus.CounterVec
	RouteTotalDelay    prometheus.Histogram
	RouteHops          prometheus.Histogram
	RouteDuration      prometheus.Histogram
	HopDecisionsTotal  *prometheus.CounterVec

	// Network state Metrics
	NetworkInitsTotal *prometheus.CounterVec
	NetworkNodes      prometheus.Gauge
	NetworkEdges      prometheus.Gauge
	NodeLoad          *prometheus.GaugeVec
	NodeLoadRatio     *prometheus.GaugeVec
	NodePheromone     *prometheus.GaugeVec
	NodeSelections    *prometheus.GaugeVec
	EvaporationsTotal prometheus.Counter
	DecaysTotal       prometheus.Counter
	TxCommits         prometheus.Gauge
	TxDiscards        prometheus.Gauge

	// System Metrics
	UptimeSeconds     prometheus.Gauge
	NetworkAgeSeconds prometheus.Gauge
	GoRoutines        prometheus.Gauge
	MemoryAllocBytes  prometheus.Gauge
	MemorySysBytes    prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.Mutex // serialises per-node gauge resets
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	r.initHTTPMetrics()
	r.initRoutingMetrics()
	r.initNetworkMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
