package algorithms

import (
	"context"
	"fmt"

	"github.com/Co11apsar/route/pkg/network"
)

const (
	// AntHopFactor is how much longer than the shortest-delay hop an ant hop may be
	AntHopFactor = 1.2

	// DefaultDepositQ is the pheromone deposit numerator
	DefaultDepositQ = 100.0

	// DefaultLoadUnit is the load added to every node a routed request enters
	DefaultLoadUnit = 1.0
)

// HopDecision records how one hop was chosen
type HopDecision struct {
	From        network.NodeID `json:"from"`
	ShortestHop network.NodeID `json:"shortest_hop"`
	AntHop      network.NodeID `json:"ant_hop"`
	Chosen      network.NodeID `json:"chosen"`
	AntAccepted bool           `json:"ant_accepted"`
	Delay       float64        `json:"delay"`
}

// RouteResult is the outcome of one hybrid routing request
type RouteResult struct {
	Path       []network.NodeID `json:"path"`
	TotalDelay float64          `json:"total_delay"`
	Hops       []HopDecision    `json:"hops"`
}

// HybridRouter walks from source to destination one hop at a time, letting the
// pheromone engine override the shortest-delay hop when AcceptAntHop allows it.
type HybridRouter struct {
	Engine *PheromoneEngine

	// Q is the deposit numerator; 0 means DefaultDepositQ
	Q float64

	// MaxHops bounds the walk; 0 means four times the node count
	MaxHops int

	// LoadUnit is added to the entry node and to every chosen hop; 0 means DefaultLoadUnit
	LoadUnit float64
}

// NewHybridRouter creates a router with default deposit, load unit and hop bound
func NewHybridRouter(engine *PheromoneEngine) *HybridRouter {
	return &HybridRouter{Engine: engine}
}

// AcceptAntHop reports whether an ant hop that differs from the shortest-delay
// hop should be taken: its delay is at most AntHopFactor times the shortest
// hop's delay and its load is strictly lower.
func AcceptAntHop(antDelay, shortestDelay, antLoad, shortestLoad float64) bool {
	return antDelay <= AntHopFactor*shortestDelay && antLoad < shortestLoad
}

// Route runs one routing request from src to dst as a single update on net.
// Loads, deposits and selection counters are committed only if dst is
// reached; ErrRoutingStalled and any other failure leave net unchanged.
func (r *HybridRouter) Route(ctx context.Context, net *network.Network, src, dst network.NodeID) (RouteResult, error) {
	if r.Engine == nil {
		return RouteResult{}, fmt.Errorf("%w: router has no pheromone engine", ErrInvalidAntParams)
	}

	var result RouteResult
	err := net.Update(func(tx *network.Tx) error {
		res, err := r.route(ctx, tx, src, dst)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return RouteResult{}, err
	}
	return result, nil
}

func (r *HybridRouter) route(ctx context.Context, tx *network.Tx, src, dst network.NodeID) (RouteResult, error) {
	if !tx.HasDelays() {
		return RouteResult{}, network.NewError("Route").Delay().Cause(network.ErrNoDelays).Err()
	}
	for _, id := range []network.NodeID{src, dst} {
		if !tx.HasNode(id) {
			return RouteResult{}, network.NewError("Route").Node(id).Cause(network.ErrNodeNotFound).Err()
		}
	}

	q := r.Q
	if q == 0 {
		q = DefaultDepositQ
	}
	unit := r.LoadUnit
	if unit == 0 {
		unit = DefaultLoadUnit
	}
	maxHops := r.MaxHops
	if maxHops <= 0 {
		maxHops = 4 * tx.NodeCount()
	}

	if err := tx.AddLoad(src, unit); err != nil {
		return RouteResult{}, err
	}

	result := RouteResult{Path: []network.NodeID{src}}
	current := src
	for current != dst {
		if len(result.Hops) >= maxHops {
			return RouteResult{}, fmt.Errorf("%w: %d hops from %d without reaching %d",
				ErrRoutingStalled, maxHops, src, dst)
		}

		hop, err := r.decide(ctx, tx, current, dst)
		if err != nil {
			return RouteResult{}, err
		}

		if err := tx.AddLoad(hop.Chosen, unit); err != nil {
			return RouteResult{}, err
		}
		entered, _ := tx.Node(hop.Chosen)
		if err := r.Engine.Deposit(tx, hop.Chosen, q, hop.Delay, entered.Load); err != nil {
			return RouteResult{}, err
		}

		result.Hops = append(result.Hops, hop)
		result.Path = append(result.Path, hop.Chosen)
		result.TotalDelay += hop.Delay
		current = hop.Chosen
	}
	return result, nil
}

// decide computes both candidate hops from current and applies the acceptance rule
func (r *HybridRouter) decide(ctx context.Context, tx *network.Tx, current, dst network.NodeID) (HopDecision, error) {
	shortestPath, _, err := ShortestDelayPath(ctx, tx, current, dst)
	if err != nil {
		return HopDecision{}, err
	}
	shortestHop := dst
	if len(shortestPath) > 1 {
		shortestHop = shortestPath[1]
	}

	hop := HopDecision{From: current, ShortestHop: shortestHop, AntHop: shortestHop, Chosen: shortestHop}

	antHop, ok, err := r.Engine.SelectNextNode(tx, current)
	if err != nil {
		return HopDecision{}, err
	}
	if ok {
		hop.AntHop = antHop
	}

	if hop.AntHop != shortestHop {
		antDelay, _ := tx.Delay(current, hop.AntHop)
		shortestDelay, _ := tx.Delay(current, shortestHop)
		antNode, _ := tx.Node(hop.AntHop)
		shortestNode, _ := tx.Node(shortestHop)
		if AcceptAntHop(antDelay, shortestDelay, antNode.Load, shortestNode.Load) {
			hop.Chosen = hop.AntHop
			hop.AntAccepted = true
		}
	}

	hop.Delay, _ = tx.Delay(current, hop.Chosen)
	return hop, nil
}
