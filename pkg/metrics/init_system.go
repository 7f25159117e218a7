package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// initSystemMetrics registers process gauges and the age of the installed
// network, all sampled at scrape time by UpdateSystemMetrics
func (r *Registry) initSystemMetrics() {
	gauge := func(name, help string) prometheus.Gauge {
		return promauto.With(r.registry).NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
	}

	r.UptimeSeconds = gauge("route_uptime_seconds", "Time since the server started in seconds")
	r.NetworkAgeSeconds = gauge("route_network_age_seconds",
		"Time since the current network was installed in seconds, 0 before the first init")
	r.GoRoutines = gauge("route_goroutines", "Number of goroutines, including scenario and event workers")
	r.MemoryAllocBytes = gauge("route_memory_alloc_bytes", "Heap bytes in use, dominated by delay matrices for large networks")
	r.MemorySysBytes = gauge("route_memory_sys_bytes", "Total bytes of memory obtained from the OS")
}
