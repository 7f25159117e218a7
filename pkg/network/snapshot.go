package network

import (
	"sort"
)

// NodeStatus is the read-only status of one node
type NodeStatus struct {
	ID         NodeID        `json:"id"`
	Capacity   float64       `json:"max_capacity"`
	Load       float64       `json:"current_load"`
	LoadRatio  float64       `json:"load_ratio"`
	Security   SecurityLevel `json:"security_level"`
	Pheromone  float64       `json:"pheromone"`
	Selections uint64        `json:"selections"`
}

// EdgeStatus is the read-only status of one undirected edge
type EdgeStatus struct {
	U         NodeID        `json:"u"`
	V         NodeID        `json:"v"`
	Latency   float64       `json:"latency"`
	Bandwidth float64       `json:"bandwidth"`
	Security  SecurityLevel `json:"security"`
}

// Snapshot is a consistent copy of all node and edge status.
// Edges appear once, keyed "u-v" with u < v.
type Snapshot struct {
	Nodes map[NodeID]NodeStatus `json:"nodes"`
	Edges map[string]EdgeStatus `json:"edges"`
}

// SortedNodes returns node status ordered by ID
func (s Snapshot) SortedNodes() []NodeStatus {
	out := make([]NodeStatus, 0, len(s.Nodes))
	for _, st := range s.Nodes {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SortedEdges returns edge status ordered by (u, v)
func (s Snapshot) SortedEdges() []EdgeStatus {
	out := make([]EdgeStatus, 0, len(s.Edges))
	for _, st := range s.Edges {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].U != out[j].U {
			return out[i].U < out[j].U
		}
		return out[i].V < out[j].V
	})
	return out
}

// Status takes a snapshot under the shared lock
func (n *Network) Status() Snapshot {
	n.mu.RLock()
	defer n.mu.RUnlock()

	snap := Snapshot{
		Nodes: make(map[NodeID]NodeStatus, len(n.nodes)),
		Edges: make(map[string]EdgeStatus, len(n.edges)),
	}
	for id, node := range n.nodes {
		snap.Nodes[id] = NodeStatus{
			ID:         id,
			Capacity:   node.Capacity,
			Load:       node.Load,
			LoadRatio:  node.LoadRatio(),
			Security:   node.Security,
			Pheromone:  node.Pheromone,
			Selections: node.Selections,
		}
	}
	for key, edge := range n.edges {
		snap.Edges[key.String()] = EdgeStatus{
			U:         key.Lo,
			V:         key.Hi,
			Latency:   edge.Latency,
			Bandwidth: edge.Bandwidth,
			Security:  edge.Security,
		}
	}
	return snap
}

// Delays returns the attached delay matrix, or nil
func (n *Network) Delays() *DelayMatrix {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.delays
}
