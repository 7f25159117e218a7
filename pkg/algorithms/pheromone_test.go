package algorithms

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/Co11apsar/route/pkg/network"
)

func TestAntParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *AntParams)
		wantErr bool
	}{
		{"defaults", func(p *AntParams) {}, false},
		{"zero alpha and beta", func(p *AntParams) { p.Alpha, p.Beta = 0, 0 }, false},
		{"negative gamma", func(p *AntParams) { p.Gamma = -1 }, true},
		{"NaN delta", func(p *AntParams) { p.Delta = math.NaN() }, true},
		{"zero epsilon", func(p *AntParams) { p.Epsilon = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultAntParams()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidAntParams) {
				t.Errorf("expected ErrInvalidAntParams, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestNewPheromoneEngine_RequiresRandomSource(t *testing.T) {
	if _, err := NewPheromoneEngine(DefaultAntParams(), nil); !errors.Is(err, ErrInvalidAntParams) {
		t.Errorf("expected ErrInvalidAntParams, got %v", err)
	}
}

func TestSelectNextNode_FavoursReinforcedNode(t *testing.T) {
	net := newDelayNetwork(t, 4, map[[2]int]float64{{0, 1}: 100, {0, 2}: 100, {0, 3}: 100})
	engine := newTestEngine(t, DefaultAntParams(), 7)

	net.Update(func(tx *network.Tx) error {
		return tx.DepositPheromone(2, 1e12)
	})

	counts := map[network.NodeID]int{}
	for i := 0; i < 100; i++ {
		err := net.Update(func(tx *network.Tx) error {
			id, ok, err := engine.SelectNextNode(tx, 0)
			if err != nil {
				return err
			}
			if !ok {
				t.Fatal("expected a candidate")
			}
			if id == 0 {
				t.Fatal("selected the current node")
			}
			counts[id]++
			return nil
		})
		if err != nil {
			t.Fatalf("SelectNextNode failed: %v", err)
		}
	}

	if counts[2] < 95 {
		t.Errorf("reinforced node chosen %d/100 times", counts[2])
	}
	node, _ := net.Node(2)
	if node.Selections != uint64(counts[2]) {
		t.Errorf("selection counter = %d, want %d", node.Selections, counts[2])
	}
}

// TestSelectNextNode_UniformFallback: with alpha = beta = 0 every desirability
// is zero, so sampling must fall back to a uniform draw
func TestSelectNextNode_UniformFallback(t *testing.T) {
	net := newDelayNetwork(t, 5, nil)
	params := DefaultAntParams()
	params.Alpha, params.Beta = 0, 0
	engine := newTestEngine(t, params, 11)

	const draws = 400
	for i := 0; i < draws; i++ {
		err := net.Update(func(tx *network.Tx) error {
			_, _, err := engine.SelectNextNode(tx, 0)
			return err
		})
		if err != nil {
			t.Fatalf("SelectNextNode failed: %v", err)
		}
	}

	var total uint64
	for _, st := range net.Status().SortedNodes() {
		if st.ID == 0 {
			if st.Selections != 0 {
				t.Errorf("current node was selected %d times", st.Selections)
			}
			continue
		}
		if st.Selections == 0 {
			t.Errorf("node %d never selected under uniform fallback", st.ID)
		}
		total += st.Selections
	}
	if total != draws {
		t.Errorf("total selections = %d, want %d", total, draws)
	}
}

func TestSample_InfiniteWeights(t *testing.T) {
	engine := newTestEngine(t, DefaultAntParams(), 5)
	candidates := []network.NodeID{10, 11, 12, 13}

	tests := []struct {
		name    string
		weights []float64
		allowed map[network.NodeID]bool
	}{
		{
			name:    "infinite weights take every draw",
			weights: []float64{1, math.Inf(1), 5, math.Inf(1)},
			allowed: map[network.NodeID]bool{11: true, 13: true},
		},
		{
			name:    "overflowing sum is rescaled",
			weights: []float64{math.MaxFloat64, math.MaxFloat64, 0, 0},
			allowed: map[network.NodeID]bool{10: true, 11: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := 0.0
			for _, w := range tt.weights {
				total += w
			}
			if !math.IsInf(total, 1) {
				t.Fatalf("setup: total = %v, want +Inf", total)
			}

			seen := make(map[network.NodeID]int)
			for i := 0; i < 200; i++ {
				got := engine.sample(candidates, tt.weights, total)
				if !tt.allowed[got] {
					t.Fatalf("sampled %d, allowed %v", got, tt.allowed)
				}
				seen[got]++
			}
			for id := range tt.allowed {
				if seen[id] == 0 {
					t.Errorf("node %d never sampled", id)
				}
			}
		})
	}
}

func TestSelectNextNode_NoCandidates(t *testing.T) {
	net := newDelayNetwork(t, 1, nil)
	engine := newTestEngine(t, DefaultAntParams(), 1)

	net.Update(func(tx *network.Tx) error {
		_, ok, err := engine.SelectNextNode(tx, 0)
		if err != nil || ok {
			t.Errorf("expected (false, nil), got (%v, %v)", ok, err)
		}
		return nil
	})
}

func TestSelectNextNode_SeededDeterminism(t *testing.T) {
	draw := func() []network.NodeID {
		net := newDelayNetwork(t, 6, map[[2]int]float64{{0, 1}: 60, {0, 2}: 90, {0, 3}: 120, {0, 4}: 150, {0, 5}: 180})
		engine := newTestEngine(t, DefaultAntParams(), 42)
		var out []network.NodeID
		for i := 0; i < 50; i++ {
			net.Update(func(tx *network.Tx) error {
				id, _, err := engine.SelectNextNode(tx, 0)
				out = append(out, id)
				return err
			})
		}
		return out
	}

	a, b := draw(), draw()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("draw %d differs under the same seed: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestDeposit(t *testing.T) {
	net := newDelayNetwork(t, 2, nil)
	engine := newTestEngine(t, DefaultAntParams(), 1)

	net.Update(func(tx *network.Tx) error {
		return engine.Deposit(tx, 1, 100, 9, 0)
	})

	node, _ := net.Node(1)
	if node.Pheromone != 11 {
		t.Errorf("pheromone = %v, want 1 + 100/10", node.Pheromone)
	}
}

func TestEngineEvaporate(t *testing.T) {
	net := newDelayNetwork(t, 3, nil)
	engine := newTestEngine(t, DefaultAntParams(), 1)

	for i := 0; i < 30; i++ {
		if err := net.Update(func(tx *network.Tx) error {
			return engine.Evaporate(tx, 0.8)
		}); err != nil {
			t.Fatalf("Evaporate failed: %v", err)
		}
	}
	for _, st := range net.Status().Nodes {
		if st.Pheromone != network.PheromoneFloor {
			t.Errorf("node %d pheromone = %v, want floor %v", st.ID, st.Pheromone, network.PheromoneFloor)
		}
	}
}

func TestHeuristicAndDesirability(t *testing.T) {
	engine, _ := NewPheromoneEngine(AntParams{Alpha: 1, Beta: 1, Gamma: 1, Delta: 1, Epsilon: 1e-9}, rand.New(rand.NewPCG(1, 2)))

	h := engine.Heuristic(0, 0)
	if h < 1e8 {
		t.Errorf("zero delay must be guarded, got heuristic %v", h)
	}
	if math.IsInf(h, 0) {
		t.Error("heuristic must stay finite with zero delay")
	}
	if got := engine.Desirability(2, 3); got != 6 {
		t.Errorf("Desirability(2, 3) = %v, want 6", got)
	}
}
