package metrics

import (
	"runtime"
	"strconv"
	"time"

	"github.com/Co11apsar/route/pkg/network"
)

// Outcome labels
const (
	StatusFound    = "found"
	StatusNotFound = "not_found"
	StatusOK       = "ok"
	StatusStalled  = "stalled"
	StatusError    = "error"
)

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordResponseSize observes the size of an HTTP response body
func (r *Registry) RecordResponseSize(method, path string, size float64) {
	r.HTTPResponseSizeBytes.WithLabelValues(method, path).Observe(size)
}

// IncHTTPRequestsInFlight marks the start of an HTTP request
func (r *Registry) IncHTTPRequestsInFlight() {
	r.HTTPRequestsInFlight.Inc()
}

// DecHTTPRequestsInFlight marks the end of an HTTP request
func (r *Registry) DecHTTPRequestsInFlight() {
	r.HTTPRequestsInFlight.Dec()
}

// RecordRateLimited counts a request rejected by the rate limiter
func (r *Registry) RecordRateLimited() {
	r.HTTPRateLimited.Inc()
}

// RecordPathRequest records one weighted path request. Cost and hops are
// observed only for found paths.
func (r *Registry) RecordPathRequest(status string, cost float64, hops int, duration time.Duration) {
	r.PathRequestsTotal.WithLabelValues(status).Inc()
	r.PathSearchDuration.Observe(duration.Seconds())
	if status == StatusFound {
		r.PathCost.Observe(cost)
		r.PathHops.Observe(float64(hops))
	}
}

// RecordRoute records one hybrid routing request and how its hops were chosen
func (r *Registry) RecordRoute(status string, totalDelay float64, hops, antHops int, duration time.Duration) {
	r.RouteRequestsTotal.WithLabelValues(status).Inc()
	r.RouteDuration.Observe(duration.Seconds())
	if status != StatusOK {
		return
	}
	r.RouteTotalDelay.Observe(totalDelay)
	r.RouteHops.Observe(float64(hops))
	r.HopDecisionsTotal.WithLabelValues("ant").Add(float64(antHops))
	r.HopDecisionsTotal.WithLabelValues("shortest").Add(float64(hops - antHops))
}

// RecordNetworkInit counts a network (re)initialisation
func (r *Registry) RecordNetworkInit(source string) {
	r.NetworkInitsTotal.WithLabelValues(source).Inc()
}

// RecordEvaporation counts an evaporation round
func (r *Registry) RecordEvaporation() {
	r.EvaporationsTotal.Inc()
}

// RecordDecay counts a load decay round
func (r *Registry) RecordDecay() {
	r.DecaysTotal.Inc()
}

// UpdateNetworkMetrics replaces the per-node gauges with the snapshot's values
func (r *Registry) UpdateNetworkMetrics(snap network.Snapshot, stats network.Statistics) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.NetworkNodes.Set(float64(len(snap.Nodes)))
	r.NetworkEdges.Set(float64(len(snap.Edges)))
	r.TxCommits.Set(float64(stats.Commits))
	r.TxDiscards.Set(float64(stats.Discards))

	// Nodes of a replaced network must not linger
	r.NodeLoad.Reset()
	r.NodeLoadRatio.Reset()
	r.NodePheromone.Reset()
	r.NodeSelections.Reset()
	for id, st := range snap.Nodes {
		label := strconv.Itoa(int(id))
		r.NodeLoad.WithLabelValues(label).Set(st.Load)
		r.NodeLoadRatio.WithLabelValues(label).Set(st.LoadRatio)
		r.NodePheromone.WithLabelValues(label).Set(st.Pheromone)
		r.NodeSelections.WithLabelValues(label).Set(float64(st.Selections))
	}
}

// UpdateSystemMetrics samples uptime, network age, goroutines and memory.
// A zero networkSince means no network is installed.
func (r *Registry) UpdateSystemMetrics(startedAt, networkSince time.Time) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	r.UptimeSeconds.Set(time.Since(startedAt).Seconds())
	if networkSince.IsZero() {
		r.NetworkAgeSeconds.Set(0)
	} else {
		r.NetworkAgeSeconds.Set(time.Since(networkSince).Seconds())
	}
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(mem.Alloc))
	r.MemorySysBytes.Set(float64(mem.Sys))
}
