package algorithms

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/Co11apsar/route/pkg/network"
)

// AntParams configures next-hop sampling
type AntParams struct {
	Alpha   float64 `json:"alpha" yaml:"alpha"`     // delay weight in the heuristic
	Beta    float64 `json:"beta" yaml:"beta"`       // load weight in the heuristic
	Gamma   float64 `json:"gamma" yaml:"gamma"`     // pheromone exponent
	Delta   float64 `json:"delta" yaml:"delta"`     // heuristic exponent
	Epsilon float64 `json:"epsilon" yaml:"epsilon"` // guards divisions by zero
}

// DefaultAntParams returns the parameters of the reference load-balancing scenario
func DefaultAntParams() AntParams {
	return AntParams{
		Alpha:   0.8,
		Beta:    1.0,
		Gamma:   0.5,
		Delta:   3,
		Epsilon: 1e-5,
	}
}

// Validate checks that every parameter is a finite, non-negative number and epsilon is positive
func (p AntParams) Validate() error {
	for name, v := range map[string]float64{"alpha": p.Alpha, "beta": p.Beta, "gamma": p.Gamma, "delta": p.Delta} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s = %v", ErrInvalidAntParams, name, v)
		}
	}
	if !(p.Epsilon > 0) || math.IsInf(p.Epsilon, 0) {
		return fmt.Errorf("%w: epsilon = %v", ErrInvalidAntParams, p.Epsilon)
	}
	return nil
}

// PheromoneEngine samples next hops in proportion to pheromone and a
// delay/load heuristic. All randomness comes from the injected source.
type PheromoneEngine struct {
	params AntParams

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// NewPheromoneEngine creates an engine; rng must not be nil
func NewPheromoneEngine(params AntParams, rng *rand.Rand) (*PheromoneEngine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: random source is nil", ErrInvalidAntParams)
	}
	return &PheromoneEngine{params: params, rng: rng}, nil
}

// Params returns the engine's parameters
func (e *PheromoneEngine) Params() AntParams {
	return e.params
}

// Heuristic blends the delay to a candidate with its load:
// alpha/(delay+eps) + beta/(load+1+eps)
func (e *PheromoneEngine) Heuristic(delay, load float64) float64 {
	p := e.params
	return p.Alpha/(delay+p.Epsilon) + p.Beta/(load+1+p.Epsilon)
}

// Desirability is pheromone^gamma * heuristic^delta
func (e *PheromoneEngine) Desirability(pheromone, heuristic float64) float64 {
	return math.Pow(pheromone, e.params.Gamma) * math.Pow(heuristic, e.params.Delta)
}

// SelectNextNode samples one node other than current. Every other node is a
// candidate, whether or not an edge links it to current. The chosen node's
// selection counter is incremented through tx. ok is false when there is no
// candidate at all.
func (e *PheromoneEngine) SelectNextNode(tx *network.Tx, current network.NodeID) (network.NodeID, bool, error) {
	if !tx.HasDelays() {
		return 0, false, network.NewError("SelectNextNode").Delay().Cause(network.ErrNoDelays).Err()
	}
	if !tx.HasNode(current) {
		return 0, false, network.NewError("SelectNextNode").Node(current).Cause(network.ErrNodeNotFound).Err()
	}

	ids := tx.NodeIDs()
	candidates := make([]network.NodeID, 0, len(ids))
	weights := make([]float64, 0, len(ids))
	total := 0.0
	for _, id := range ids {
		if id == current {
			continue
		}
		node, _ := tx.Node(id)
		delay, _ := tx.Delay(current, id)
		w := e.Desirability(node.Pheromone, e.Heuristic(delay, node.Load))
		candidates = append(candidates, id)
		weights = append(weights, w)
		total += w
	}
	if len(candidates) == 0 {
		return 0, false, nil
	}

	chosen := e.sample(candidates, weights, total)
	if err := tx.RecordSelection(chosen); err != nil {
		return 0, false, err
	}
	return chosen, true, nil
}

// sample draws from the distribution weights/total. Infinite weights share
// all the probability between them, a sum that overflowed is rescaled, and a
// zero or NaN total falls back to a uniform draw.
func (e *PheromoneEngine) sample(candidates []network.NodeID, weights []float64, total float64) network.NodeID {
	e.mu.Lock()
	defer e.mu.Unlock()

	if math.IsInf(total, 1) {
		var dominant []network.NodeID
		for i, w := range weights {
			if math.IsInf(w, 1) {
				dominant = append(dominant, candidates[i])
			}
		}
		if len(dominant) > 0 {
			return dominant[e.rng.IntN(len(dominant))]
		}
		weights, total = rescale(weights)
	}
	if !(total > 0) || math.IsInf(total, 0) {
		return candidates[e.rng.IntN(len(candidates))]
	}

	r := e.rng.Float64() * total
	acc := 0.0
	last := candidates[len(candidates)-1]
	for i, w := range weights {
		if !(w > 0) {
			continue
		}
		acc += w
		last = candidates[i]
		if r < acc {
			return candidates[i]
		}
	}
	// Rounding left r at or above the accumulated sum
	return last
}

// rescale divides finite weights by their maximum so their sum is finite
func rescale(weights []float64) ([]float64, float64) {
	peak := 0.0
	for _, w := range weights {
		if w > peak {
			peak = w
		}
	}
	if peak == 0 {
		return weights, 0
	}
	scaled := make([]float64, len(weights))
	total := 0.0
	for i, w := range weights {
		if w > 0 {
			scaled[i] = w / peak
			total += scaled[i]
		}
	}
	return scaled, total
}

// Deposit reinforces node by q/(delay+load+1)
func (e *PheromoneEngine) Deposit(tx *network.Tx, id network.NodeID, q, delay, load float64) error {
	return tx.DepositPheromone(id, q/(delay+load+1))
}

// Evaporate scales every node's pheromone by rho, floored at network.PheromoneFloor
func (e *PheromoneEngine) Evaporate(tx *network.Tx, rho float64) error {
	return tx.EvaporatePheromone(rho)
}
