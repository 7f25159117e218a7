package health

import (
	"fmt"
	"runtime"

	"github.com/Co11apsar/route/pkg/network"
)

// StatusFunc returns the current network snapshot, or an error when there
// is no network to report on
type StatusFunc func() (network.Snapshot, error)

// NetworkCheck is unhealthy until a network has been initialised
func NetworkCheck(status StatusFunc) CheckFunc {
	return func() Check {
		check := Check{Name: "network"}

		snap, err := status()
		if err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
			return check
		}

		check.Status = StatusHealthy
		check.Message = "Network initialized"
		check.Details = map[string]any{
			"nodes": len(snap.Nodes),
			"edges": len(snap.Edges),
		}
		return check
	}
}

// SaturationCheck reports degraded when any node's load ratio reaches
// threshold. Saturated nodes still route, but their edges cost more.
func SaturationCheck(status StatusFunc, threshold float64) CheckFunc {
	return func() Check {
		check := Check{Name: "saturation", Status: StatusHealthy}

		snap, err := status()
		if err != nil {
			check.Message = "No network"
			return check
		}

		var saturated []int
		peak := 0.0
		for _, st := range snap.SortedNodes() {
			peak = max(peak, st.LoadRatio)
			if st.LoadRatio >= threshold {
				saturated = append(saturated, int(st.ID))
			}
		}

		check.Details = map[string]any{
			"peak_load_ratio": peak,
			"saturated_nodes": saturated,
		}
		if len(saturated) > 0 {
			check.Status = StatusDegraded
			check.Message = fmt.Sprintf("%d of %d nodes at or above %.0f%% load", len(saturated), len(snap.Nodes), threshold*100)
		} else {
			check.Message = "Load within capacity"
		}
		return check
	}
}

// MemoryCheck creates a health check for memory usage. A nil getUsage reads
// the Go runtime.
func MemoryCheck(getUsage func() (alloc, sys uint64)) CheckFunc {
	if getUsage == nil {
		getUsage = func() (uint64, uint64) {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			return m.Alloc, m.Sys
		}
	}

	return func() Check {
		alloc, sys := getUsage()
		check := Check{
			Name:    "memory",
			Status:  StatusHealthy,
			Message: "Memory usage normal",
			Details: map[string]any{"alloc_bytes": alloc, "sys_bytes": sys},
		}
		if sys > 0 && float64(alloc)/float64(sys) > 0.9 {
			check.Status = StatusDegraded
			check.Message = "High memory usage"
		}
		return check
	}
}
