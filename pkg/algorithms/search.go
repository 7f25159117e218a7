package algorithms

import (
	"container/heap"
	"context"
	"math"

	"github.com/Co11apsar/route/pkg/network"
)

// SearchOptions configures a priority search
type SearchOptions struct {
	// Recorder, if set, receives a PathRecord each time a node is finalized
	Recorder func(PathRecord)

	// MaxPops bounds the number of frontier entries popped; 0 = unlimited
	MaxPops int
}

// searchItem is a priority queue entry. seq breaks cost ties by insertion order.
type searchItem struct {
	cost float64
	seq  uint64
	node network.NodeID
	path []network.NodeID // path up to, not including, node
}

type frontier []*searchItem

func (q frontier) Len() int { return len(q) }
func (q frontier) Less(i, j int) bool {
	if q[i].cost != q[j].cost {
		return q[i].cost < q[j].cost
	}
	return q[i].seq < q[j].seq
}
func (q frontier) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *frontier) Push(x any)   { *q = append(*q, x.(*searchItem)) }
func (q *frontier) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// expandFunc calls visit for every node reachable from u in one step, with the step cost
type expandFunc func(u network.NodeID, visit func(v network.NodeID, cost float64))

// prioritySearch is the least-cost search shared by FindPath and ShortestDelayPath.
// A node is finalized on its first pop; the search stops when end is popped.
// Step costs must be non-negative.
func prioritySearch(ctx context.Context, start, end network.NodeID, expand expandFunc, opts SearchOptions) ([]network.NodeID, float64, bool, error) {
	costs := map[network.NodeID]float64{start: 0}
	visited := make(map[network.NodeID]bool)

	var seq uint64
	q := &frontier{{cost: 0, seq: seq, node: start}}
	pops := 0

	for q.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, math.Inf(1), false, ErrSearchTimeout
		}
		if opts.MaxPops > 0 && pops >= opts.MaxPops {
			return nil, math.Inf(1), false, ErrSearchTimeout
		}

		item := heap.Pop(q).(*searchItem)
		pops++
		if visited[item.node] {
			continue
		}

		path := append(append(make([]network.NodeID, 0, len(item.path)+1), item.path...), item.node)
		if opts.Recorder != nil {
			opts.Recorder(snapshotRecord(item.node, *q, visited, costs, path))
		}

		if item.node == end {
			return path, item.cost, true, nil
		}
		visited[item.node] = true

		expand(item.node, func(v network.NodeID, step float64) {
			if visited[v] {
				return
			}
			next := item.cost + step
			if best, ok := costs[v]; ok && next >= best {
				return
			}
			costs[v] = next
			seq++
			heap.Push(q, &searchItem{cost: next, seq: seq, node: v, path: path})
		})
	}

	return nil, math.Inf(1), false, nil
}
