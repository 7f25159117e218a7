// Package simulation drives an engine with repeated requests: the
// weighted-path scenario over a random secure network, and the hybrid
// load-balancing scenario with natural load decay and periodic evaporation.
package simulation

import (
	"github.com/Co11apsar/route/pkg/network"
)

// Progress is reported after every request of a scenario
type Progress struct {
	Request int              `json:"request"`
	Total   int              `json:"total"`
	Path    []network.NodeID `json:"path,omitempty"`

	// Value is the path cost for path requests and the total delay for routes
	Value float64 `json:"value"`
	OK    bool    `json:"ok"`
}

// ProgressFunc receives scenario progress; it runs on the scenario goroutine
type ProgressFunc func(Progress)

func (f ProgressFunc) report(p Progress) {
	if f != nil {
		f(p)
	}
}
