package topology

import (
	"fmt"
	"math/rand/v2"

	"github.com/Co11apsar/route/pkg/network"
)

// RandomConfig parameterises RandomSecureNetwork. Integer ranges are inclusive.
type RandomConfig struct {
	Nodes       int         `yaml:"nodes" json:"nodes" validate:"min=1,max=1000"`
	Edges       int         `yaml:"edges" json:"edges" validate:"min=0,max=20000"`
	MinCapacity int         `yaml:"min_capacity" json:"min_capacity" validate:"min=1"`
	MaxCapacity int         `yaml:"max_capacity" json:"max_capacity" validate:"gtefield=MinCapacity"`
	MinLatency  int         `yaml:"min_latency" json:"min_latency" validate:"min=1"`
	MaxLatency  int         `yaml:"max_latency" json:"max_latency" validate:"gtefield=MinLatency"`
	Bandwidths  []float64   `yaml:"bandwidths" json:"bandwidths" validate:"required,min=1,dive,gt=0"`
	Delays      *DelayRange `yaml:"delays,omitempty" json:"delays,omitempty" validate:"omitempty"`
}

// DefaultRandomConfig returns the 20-node, 35-edge secure network with
// delays of 50..200 attached so hybrid routing works on it too
func DefaultRandomConfig() RandomConfig {
	return RandomConfig{
		Nodes:       20,
		Edges:       35,
		MinCapacity: 80,
		MaxCapacity: 200,
		MinLatency:  10,
		MaxLatency:  50,
		Bandwidths:  []float64{100, 200, 500},
		Delays:      &DelayRange{Min: 50, Max: 200},
	}
}

// intBetween returns a uniform integer in [lo, hi]
func intBetween(rng *rand.Rand, lo, hi int) int {
	return lo + rng.IntN(hi-lo+1)
}

// RandomSecureNetwork builds nodes 0..Nodes-1 with random capacity and
// security, then links distinct random pairs until Edges edges exist.
func RandomSecureNetwork(rng *rand.Rand, cfg RandomConfig) (*network.Network, error) {
	if err := validateStruct(&cfg); err != nil {
		return nil, err
	}
	if maxEdges := cfg.Nodes * (cfg.Nodes - 1) / 2; cfg.Edges > maxEdges {
		return nil, fmt.Errorf("%w: %d edges for %d nodes (max %d)", ErrTooManyEdges, cfg.Edges, cfg.Nodes, maxEdges)
	}

	net := network.New()
	ids := make([]network.NodeID, cfg.Nodes)
	for i := range ids {
		ids[i] = network.NodeID(i)
		err := net.AddNode(network.NodeSpec{
			ID:       ids[i],
			Capacity: float64(intBetween(rng, cfg.MinCapacity, cfg.MaxCapacity)),
			Security: network.SecurityLevel(intBetween(rng, int(network.SecurityLow), int(network.SecurityHigh))),
		})
		if err != nil {
			return nil, err
		}
	}

	linked := make(map[network.EdgeKey]bool, cfg.Edges)
	for len(linked) < cfg.Edges {
		u, v := network.NodeID(rng.IntN(cfg.Nodes)), network.NodeID(rng.IntN(cfg.Nodes))
		if u == v || linked[network.KeyOf(u, v)] {
			continue
		}
		err := net.AddEdge(network.EdgeSpec{
			U:         u,
			V:         v,
			Latency:   float64(intBetween(rng, cfg.MinLatency, cfg.MaxLatency)),
			Bandwidth: cfg.Bandwidths[rng.IntN(len(cfg.Bandwidths))],
		})
		if err != nil {
			return nil, err
		}
		linked[network.KeyOf(u, v)] = true
	}

	if cfg.Delays != nil {
		m, err := RandomDelayMatrix(rng, ids, cfg.Delays.Min, cfg.Delays.Max)
		if err != nil {
			return nil, err
		}
		if err := net.SetDelays(m); err != nil {
			return nil, err
		}
	}
	return net, nil
}

// RandomDelayMatrix fills a symmetric matrix with integer delays in [min, max]
func RandomDelayMatrix(rng *rand.Rand, ids []network.NodeID, min, max int) (*network.DelayMatrix, error) {
	if err := validateStruct(&DelayRange{Min: min, Max: max}); err != nil {
		return nil, err
	}

	m := network.NewDelayMatrix(ids)
	for i := range ids {
		for j := i + 1; j < len(ids); j++ {
			if err := m.Set(ids[i], ids[j], float64(intBetween(rng, min, max))); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// LoadBalanceCapacity is the capacity of load-balancing nodes; their load is
// never clamped in practice
const LoadBalanceCapacity = 1e9

// LoadBalanceNetwork builds n fully trusted nodes without edges and a random
// delay matrix in [minDelay, maxDelay]. Node 0 is the usual entry, n-1 the exit.
func LoadBalanceNetwork(rng *rand.Rand, n, minDelay, maxDelay int) (*network.Network, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: load balancing needs at least 2 nodes, got %d", ErrInvalidSpec, n)
	}

	net := network.New()
	ids := make([]network.NodeID, n)
	for i := range ids {
		ids[i] = network.NodeID(i)
		err := net.AddNode(network.NodeSpec{ID: ids[i], Capacity: LoadBalanceCapacity, Security: network.SecurityHigh})
		if err != nil {
			return nil, err
		}
	}

	m, err := RandomDelayMatrix(rng, ids, minDelay, maxDelay)
	if err != nil {
		return nil, err
	}
	if err := net.SetDelays(m); err != nil {
		return nil, err
	}
	return net, nil
}
