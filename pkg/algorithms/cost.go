package algorithms

import (
	"fmt"
	"math"

	"github.com/Co11apsar/route/pkg/network"
)

// Weights balances latency, destination load and link security in the edge cost
type Weights struct {
	Latency  float64 `json:"latency" yaml:"latency"`
	Load     float64 `json:"load" yaml:"load"`
	Security float64 `json:"security" yaml:"security"`
}

// DefaultWeights returns the weighting used when a request does not supply one
func DefaultWeights() Weights {
	return Weights{Latency: 0.4, Load: 0.4, Security: 0.2}
}

// Validate rejects negative or non-finite coefficients; with them edge costs
// could become negative and early-exit search would be wrong.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{"latency": w.Latency, "load": w.Load, "security": w.Security} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s = %v", ErrNegativeWeight, name, v)
		}
	}
	return nil
}

const (
	loadPenaltyScale     = 100.0
	securityPenaltyScale = 10.0
	securityCeiling      = 4
)

// EdgeCost is the cost of moving across edge into dst:
//
//	latency*w.Latency + loadRatio(dst)^2*100*w.Load + (4-security)*10*w.Security
func EdgeCost(edge network.Edge, dst network.Node, w Weights) float64 {
	ratio := dst.LoadRatio()
	return edge.Latency*w.Latency +
		ratio*ratio*loadPenaltyScale*w.Load +
		float64(securityCeiling-int(edge.Security))*securityPenaltyScale*w.Security
}

// PathCost recomputes the summed edge cost of path against the state seen by tx.
// It returns false if two consecutive nodes are not linked.
func PathCost(tx *network.Tx, path []network.NodeID, w Weights) (float64, bool) {
	total := 0.0
	for i := 0; i+1 < len(path); i++ {
		edge, ok := tx.Edge(path[i], path[i+1])
		if !ok {
			return 0, false
		}
		dst, ok := tx.Node(path[i+1])
		if !ok {
			return 0, false
		}
		total += EdgeCost(edge, dst, w)
	}
	return total, true
}
