package algorithms

import (
	"context"

	"github.com/Co11apsar/route/pkg/network"
)

// ShortestDelayPath finds the minimum total-delay path over the complete delay
// matrix, ignoring load and security. Every other node is a candidate step,
// not only topological neighbours.
func ShortestDelayPath(ctx context.Context, tx *network.Tx, start, end network.NodeID) ([]network.NodeID, float64, error) {
	if !tx.HasDelays() {
		return nil, 0, network.NewError("ShortestDelayPath").Delay().Cause(network.ErrNoDelays).Err()
	}
	for _, id := range []network.NodeID{start, end} {
		if !tx.HasNode(id) {
			return nil, 0, network.NewError("ShortestDelayPath").Node(id).Cause(network.ErrNodeNotFound).Err()
		}
	}

	ids := tx.NodeIDs()
	expand := func(u network.NodeID, visit func(network.NodeID, float64)) {
		for _, v := range ids {
			if v == u {
				continue
			}
			d, _ := tx.Delay(u, v)
			visit(v, d)
		}
	}

	path, cost, _, err := prioritySearch(ctx, start, end, expand, SearchOptions{})
	if err != nil {
		return nil, 0, err
	}
	return path, cost, nil
}
