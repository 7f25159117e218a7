package algorithms

import (
	"context"
	"fmt"
	"math"

	"github.com/Co11apsar/route/pkg/network"
)

// PathResult is the outcome of FindPath. When Found is false, Path is nil and
// Cost is +Inf; that is a normal result, not an error.
type PathResult struct {
	Path  []network.NodeID
	Cost  float64
	Found bool
}

// FindPath selects a least-cost path from start to end under EdgeCost and, on
// success, applies the path load to every node on it (start and end included).
// Search and load update run as one exclusive unit on net; costs are evaluated
// against the load state from before the update.
func FindPath(ctx context.Context, net *network.Network, start, end network.NodeID, w Weights, opts SearchOptions) (PathResult, error) {
	if err := w.Validate(); err != nil {
		return PathResult{}, err
	}

	result := PathResult{Cost: math.Inf(1)}
	err := net.Update(func(tx *network.Tx) error {
		path, cost, found, err := weightedSearch(ctx, tx, start, end, w, opts)
		if err != nil {
			return err
		}
		if !found {
			return nil
		}
		if err := tx.ApplyPathLoad(path); err != nil {
			return err
		}
		result = PathResult{Path: path, Cost: cost, Found: true}
		return nil
	})
	if err != nil {
		return PathResult{Cost: math.Inf(1)}, err
	}
	return result, nil
}

// PreviewPath runs the same search as FindPath under a read-only view and
// applies no load.
func PreviewPath(ctx context.Context, net *network.Network, start, end network.NodeID, w Weights, opts SearchOptions) (PathResult, error) {
	if err := w.Validate(); err != nil {
		return PathResult{}, err
	}

	result := PathResult{Cost: math.Inf(1)}
	err := net.View(func(tx *network.Tx) error {
		path, cost, found, err := weightedSearch(ctx, tx, start, end, w, opts)
		if err != nil {
			return err
		}
		if found {
			result = PathResult{Path: path, Cost: cost, Found: true}
		}
		return nil
	})
	if err != nil {
		return PathResult{Cost: math.Inf(1)}, err
	}
	return result, nil
}

func weightedSearch(ctx context.Context, tx *network.Tx, start, end network.NodeID, w Weights, opts SearchOptions) ([]network.NodeID, float64, bool, error) {
	for _, id := range []network.NodeID{start, end} {
		if !tx.HasNode(id) {
			return nil, 0, false, fmt.Errorf("find path %d->%d: %w",
				start, end, network.NewError("FindPath").Node(id).Cause(network.ErrNodeNotFound).Err())
		}
	}

	expand := func(u network.NodeID, visit func(network.NodeID, float64)) {
		for _, v := range tx.Neighbors(u) {
			edge, _ := tx.Edge(u, v)
			dst, _ := tx.Node(v)
			visit(v, EdgeCost(edge, dst, w))
		}
	}
	return prioritySearch(ctx, start, end, expand, opts)
}
