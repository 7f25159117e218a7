package algorithms

import (
	"math/rand/v2"
	"testing"

	"github.com/Co11apsar/route/pkg/network"
)

// latencyOnly weighs nothing but edge latency
var latencyOnly = Weights{Latency: 1}

// newDiamondNetwork builds 0-1-3 (latency 10+10) and 0-2-3 (latency 30+5)
func newDiamondNetwork(t *testing.T) *network.Network {
	t.Helper()
	net := network.New()
	for i := 0; i < 4; i++ {
		if err := net.AddNode(network.NodeSpec{ID: network.NodeID(i), Capacity: 100, Security: network.SecurityMedium}); err != nil {
			t.Fatalf("AddNode(%d) failed: %v", i, err)
		}
	}
	for _, e := range []network.EdgeSpec{
		{U: 0, V: 1, Latency: 10, Bandwidth: 100},
		{U: 1, V: 3, Latency: 10, Bandwidth: 100},
		{U: 0, V: 2, Latency: 30, Bandwidth: 100},
		{U: 2, V: 3, Latency: 5, Bandwidth: 100},
	} {
		if err := net.AddEdge(e); err != nil {
			t.Fatalf("AddEdge(%d,%d) failed: %v", e.U, e.V, err)
		}
	}
	return net
}

// newDelayNetwork builds n nodes with the given symmetric delays; pairs not
// listed default to 1000
func newDelayNetwork(t *testing.T, n int, delays map[[2]int]float64) *network.Network {
	t.Helper()
	net := network.New()
	ids := make([]network.NodeID, n)
	for i := 0; i < n; i++ {
		ids[i] = network.NodeID(i)
		if err := net.AddNode(network.NodeSpec{ID: ids[i], Capacity: 1000, Security: network.SecurityHigh}); err != nil {
			t.Fatalf("AddNode(%d) failed: %v", i, err)
		}
	}
	m := network.NewDelayMatrix(ids)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d, ok := delays[[2]int{i, j}]
			if !ok {
				d = 1000
			}
			if err := m.Set(ids[i], ids[j], d); err != nil {
				t.Fatalf("Set(%d,%d) failed: %v", i, j, err)
			}
		}
	}
	if err := net.SetDelays(m); err != nil {
		t.Fatalf("SetDelays failed: %v", err)
	}
	return net
}

func newTestEngine(t *testing.T, params AntParams, seed uint64) *PheromoneEngine {
	t.Helper()
	engine, err := NewPheromoneEngine(params, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
	if err != nil {
		t.Fatalf("NewPheromoneEngine failed: %v", err)
	}
	return engine
}

func loadOf(t *testing.T, net *network.Network, id network.NodeID) float64 {
	t.Helper()
	node, err := net.Node(id)
	if err != nil {
		t.Fatalf("Node(%d) failed: %v", id, err)
	}
	return node.Load
}
