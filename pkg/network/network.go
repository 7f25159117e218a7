package network

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
)

// Network is the shared, mutable model of nodes, undirected edges and
// (optionally) a complete delay matrix. Identities are fixed once added;
// load, pheromone and selection counters change only through Tx mutations.
type Network struct {
	nodes     map[NodeID]*Node
	order     []NodeID // node IDs in insertion order
	edges     map[EdgeKey]*Edge
	adjacency map[NodeID][]NodeID // neighbour IDs in edge insertion order
	delays    *DelayMatrix

	// Serialises search-then-mutate units; see Update and View
	mu sync.RWMutex

	commits  atomic.Uint64
	discards atomic.Uint64
}

// New creates an empty network
func New() *Network {
	return &Network{
		nodes:     make(map[NodeID]*Node),
		edges:     make(map[EdgeKey]*Edge),
		adjacency: make(map[NodeID][]NodeID),
	}
}

// AddNode adds a node with zero load and the initial pheromone level
func (n *Network) AddNode(spec NodeSpec) error {
	if spec.Capacity <= 0 || math.IsNaN(spec.Capacity) || math.IsInf(spec.Capacity, 0) {
		return NewError("AddNode").Node(spec.ID).Cause(fmt.Errorf("%w: %v", ErrInvalidCapacity, spec.Capacity)).Err()
	}
	if err := spec.Security.Validate(); err != nil {
		return NewError("AddNode").Node(spec.ID).Cause(err).Err()
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.nodes[spec.ID]; exists {
		return NewError("AddNode").Node(spec.ID).Cause(ErrDuplicateNode).Err()
	}

	n.nodes[spec.ID] = &Node{
		ID:        spec.ID,
		Capacity:  spec.Capacity,
		Security:  spec.Security,
		Pheromone: InitialPheromone,
	}
	n.order = append(n.order, spec.ID)
	return nil
}

// AddEdge adds an undirected edge. Its security is the minimum of its endpoints' levels.
func (n *Network) AddEdge(spec EdgeSpec) error {
	if spec.U == spec.V {
		return NewError("AddEdge").Edge(spec.U, spec.V).Cause(ErrSelfLoop).Err()
	}
	if spec.Latency <= 0 || math.IsNaN(spec.Latency) || math.IsInf(spec.Latency, 0) {
		return NewError("AddEdge").Edge(spec.U, spec.V).Cause(fmt.Errorf("%w: %v", ErrInvalidLatency, spec.Latency)).Err()
	}
	if spec.Bandwidth <= 0 || math.IsNaN(spec.Bandwidth) {
		return NewError("AddEdge").Edge(spec.U, spec.V).Cause(fmt.Errorf("%w: %v", ErrInvalidBandwidth, spec.Bandwidth)).Err()
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	u, ok := n.nodes[spec.U]
	if !ok {
		return NewError("AddEdge").Node(spec.U).Cause(ErrNodeNotFound).Err()
	}
	v, ok := n.nodes[spec.V]
	if !ok {
		return NewError("AddEdge").Node(spec.V).Cause(ErrNodeNotFound).Err()
	}

	key := KeyOf(spec.U, spec.V)
	if _, exists := n.edges[key]; exists {
		return NewError("AddEdge").Edge(spec.U, spec.V).Cause(ErrDuplicateEdge).Err()
	}

	n.edges[key] = &Edge{
		Key:       key,
		Latency:   spec.Latency,
		Bandwidth: spec.Bandwidth,
		Security:  min(u.Security, v.Security),
	}
	n.adjacency[spec.U] = append(n.adjacency[spec.U], spec.V)
	n.adjacency[spec.V] = append(n.adjacency[spec.V], spec.U)
	return nil
}

// SetDelays attaches a complete delay matrix covering exactly the network's nodes
func (n *Network) SetDelays(m *DelayMatrix) error {
	if m == nil {
		return NewError("SetDelays").Delay().Cause(ErrInvalidDelayMatrix).Err()
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if err := m.validate(n.nodes); err != nil {
		return NewError("SetDelays").Delay().Cause(err).Err()
	}
	n.delays = m
	return nil
}

// HasNode reports whether id is part of the network
func (n *Network) HasNode(id NodeID) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	_, ok := n.nodes[id]
	return ok
}

// Node returns a copy of the committed state of a node
func (n *Network) Node(id NodeID) (Node, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	node, ok := n.nodes[id]
	if !ok {
		return Node{}, NewError("Node").Node(id).Cause(ErrNodeNotFound).Err()
	}
	return *node, nil
}

// Edge returns the edge between u and v; argument order does not matter
func (n *Network) Edge(u, v NodeID) (Edge, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	edge, ok := n.edges[KeyOf(u, v)]
	if !ok {
		return Edge{}, NewError("Edge").Edge(u, v).Cause(ErrEdgeNotFound).Err()
	}
	return *edge, nil
}

// NodeIDs returns all node IDs in insertion order
func (n *Network) NodeIDs() []NodeID {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]NodeID(nil), n.order...)
}

// Statistics returns node/edge counts and transaction outcome counters
func (n *Network) Statistics() Statistics {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return Statistics{
		Commits:   n.commits.Load(),
		Discards:  n.discards.Load(),
		NodeCount: len(n.nodes),
		EdgeCount: len(n.edges),
	}
}

// Update runs fn as one exclusive unit. Mutations made through the Tx are
// buffered and applied only if fn returns nil; otherwise nothing changes.
func (n *Network) Update(fn func(tx *Tx) error) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	tx := newTx(n, true)
	if err := fn(tx); err != nil {
		tx.discard()
		n.discards.Add(1)
		return err
	}
	tx.commit()
	n.commits.Add(1)
	return nil
}

// View runs fn under the shared lock with a read-only Tx
func (n *Network) View(fn func(tx *Tx) error) error {
	n.mu.RLock()
	defer n.mu.RUnlock()

	tx := newTx(n, false)
	defer tx.discard()
	return fn(tx)
}
