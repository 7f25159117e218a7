package network

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestNetworkInvariants uses property-based testing to verify model invariants
func TestNetworkInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("edge lookup is symmetric", prop.ForAll(
		func(u, v int, latency, bandwidth float64, secU, secV int) bool {
			if u == v {
				return true
			}
			net := New()
			net.AddNode(NodeSpec{ID: NodeID(u), Capacity: 100, Security: SecurityLevel(secU)})
			net.AddNode(NodeSpec{ID: NodeID(v), Capacity: 100, Security: SecurityLevel(secV)})
			if err := net.AddEdge(EdgeSpec{U: NodeID(u), V: NodeID(v), Latency: latency, Bandwidth: bandwidth}); err != nil {
				return false
			}
			a, errA := net.Edge(NodeID(u), NodeID(v))
			b, errB := net.Edge(NodeID(v), NodeID(u))
			return errA == nil && errB == nil && a == b &&
				a.Security == min(SecurityLevel(secU), SecurityLevel(secV))
		},
		gen.IntRange(0, 50),
		gen.IntRange(0, 50),
		gen.Float64Range(0.1, 500),
		gen.Float64Range(1, 1000),
		gen.IntRange(1, 3),
		gen.IntRange(1, 3),
	))

	properties.Property("load never exceeds capacity", prop.ForAll(
		func(capacity float64, paths [][]int) bool {
			net := New()
			for i := 0; i < 5; i++ {
				net.AddNode(NodeSpec{ID: NodeID(i), Capacity: capacity, Security: 2})
			}
			for _, p := range paths {
				path := make([]NodeID, len(p))
				for i, id := range p {
					path[i] = NodeID(id)
				}
				net.Update(func(tx *Tx) error {
					return tx.ApplyPathLoad(path)
				})
			}
			for _, st := range net.Status().Nodes {
				if st.Load > st.Capacity {
					return false
				}
			}
			return true
		},
		gen.Float64Range(1, 50),
		gen.SliceOf(gen.SliceOf(gen.IntRange(0, 4))),
	))

	properties.Property("evaporation keeps the floor and converges monotonically", prop.ForAll(
		func(deposit, rho float64, rounds int) bool {
			net := New()
			net.AddNode(NodeSpec{ID: 0, Capacity: 10, Security: 1})
			net.Update(func(tx *Tx) error {
				return tx.DepositPheromone(0, deposit)
			})

			prev, _ := net.Node(0)
			for i := 0; i < rounds; i++ {
				if err := net.Update(func(tx *Tx) error {
					return tx.EvaporatePheromone(rho)
				}); err != nil {
					return false
				}
				cur, _ := net.Node(0)
				if cur.Pheromone < PheromoneFloor || cur.Pheromone > prev.Pheromone {
					return false
				}
				prev = cur
			}
			return true
		},
		gen.Float64Range(0, 1000),
		gen.Float64Range(0.01, 0.99),
		gen.IntRange(1, 60),
	))

	properties.TestingRun(t)
}
