package algorithms

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/Co11apsar/route/pkg/network"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// randomNetwork builds a small connected-or-not network from seed
func randomNetwork(seed uint64, n, edges int) *network.Network {
	rng := rand.New(rand.NewPCG(seed, 1))
	net := network.New()
	for i := 0; i < n; i++ {
		net.AddNode(network.NodeSpec{
			ID:       network.NodeID(i),
			Capacity: 10 + float64(rng.IntN(50)),
			Security: network.SecurityLevel(1 + rng.IntN(3)),
		})
	}
	for i := 0; i < edges; i++ {
		u, v := rng.IntN(n), rng.IntN(n)
		// Self loops and duplicates are rejected; skipping them is fine here
		net.AddEdge(network.EdgeSpec{
			U:         network.NodeID(u),
			V:         network.NodeID(v),
			Latency:   1 + rng.Float64()*50,
			Bandwidth: 100,
		})
	}
	return net
}

// TestFindPathProperties checks cost consistency and the load invariant
func TestFindPathProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 60

	properties := gopter.NewProperties(parameters)

	properties.Property("returned cost equals the recomputed path cost", prop.ForAll(
		func(seed uint64, lw, ldw, sw float64, start, end int) bool {
			net := randomNetwork(seed, 8, 14)
			w := Weights{Latency: lw, Load: ldw, Security: sw}
			src, dst := network.NodeID(start), network.NodeID(end)

			// Give the load term something to bite on
			for i := 0; i < 3; i++ {
				FindPath(context.Background(), net, network.NodeID(i), network.NodeID(7-i), w, SearchOptions{})
			}

			preview, err := PreviewPath(context.Background(), net, src, dst, w, SearchOptions{})
			if err != nil {
				return false
			}
			if !preview.Found {
				return math.IsInf(preview.Cost, 1)
			}

			var recomputed float64
			var ok bool
			net.View(func(tx *network.Tx) error {
				recomputed, ok = PathCost(tx, preview.Path, w)
				return nil
			})
			if !ok || math.Abs(recomputed-preview.Cost) > 1e-9 {
				return false
			}

			res, err := FindPath(context.Background(), net, src, dst, w, SearchOptions{})
			return err == nil && res.Found && res.Cost == preview.Cost
		},
		gen.UInt64(),
		gen.Float64Range(0, 2),
		gen.Float64Range(0, 2),
		gen.Float64Range(0, 2),
		gen.IntRange(0, 7),
		gen.IntRange(0, 7),
	))

	properties.Property("load never exceeds capacity after repeated requests", prop.ForAll(
		func(seed uint64, requests int) bool {
			net := randomNetwork(seed, 6, 10)
			rng := rand.New(rand.NewPCG(seed, 2))
			for i := 0; i < requests; i++ {
				src, dst := network.NodeID(rng.IntN(6)), network.NodeID(rng.IntN(6))
				if _, err := FindPath(context.Background(), net, src, dst, DefaultWeights(), SearchOptions{}); err != nil {
					return false
				}
			}
			for _, st := range net.Status().Nodes {
				if st.Load > st.Capacity {
					return false
				}
			}
			return true
		},
		gen.UInt64(),
		gen.IntRange(1, 60),
	))

	properties.TestingRun(t)
}
