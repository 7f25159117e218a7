package network

import (
	"fmt"
	"math"
	"slices"
)

// Tx is a view of the network inside Update or View. Reads observe the
// committed state overlaid with this transaction's own buffered mutations.
// A Tx must not be retained after the callback returns.
type Tx struct {
	n        *Network
	writable bool
	closed   bool

	// Pending node state, keyed by node; only mutable fields differ from committed
	pending map[NodeID]Node
}

func newTx(n *Network, writable bool) *Tx {
	return &Tx{
		n:        n,
		writable: writable,
		pending:  make(map[NodeID]Node),
	}
}

// Writable reports whether mutations are allowed
func (tx *Tx) Writable() bool {
	return tx.writable && !tx.closed
}

// Node returns the current state of a node as seen by this transaction
func (tx *Tx) Node(id NodeID) (Node, bool) {
	if node, ok := tx.pending[id]; ok {
		return node, true
	}
	node, ok := tx.n.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *node, true
}

// HasNode reports whether id exists
func (tx *Tx) HasNode(id NodeID) bool {
	_, ok := tx.n.nodes[id]
	return ok
}

// NodeIDs returns all node IDs in insertion order
func (tx *Tx) NodeIDs() []NodeID {
	return slices.Clone(tx.n.order)
}

// NodeCount returns the number of nodes
func (tx *Tx) NodeCount() int {
	return len(tx.n.order)
}

// Neighbors returns the adjacency-restricted neighbours of id, in edge insertion order
func (tx *Tx) Neighbors(id NodeID) []NodeID {
	return tx.n.adjacency[id]
}

// Edge returns the edge between u and v in either order
func (tx *Tx) Edge(u, v NodeID) (Edge, bool) {
	edge, ok := tx.n.edges[KeyOf(u, v)]
	if !ok {
		return Edge{}, false
	}
	return *edge, true
}

// HasDelays reports whether a delay matrix is attached
func (tx *Tx) HasDelays() bool {
	return tx.n.delays != nil
}

// Delay returns the delay-matrix entry for (u, v)
func (tx *Tx) Delay(u, v NodeID) (float64, bool) {
	if tx.n.delays == nil {
		return 0, false
	}
	return tx.n.delays.Delay(u, v)
}

func (tx *Tx) checkWritable(op string) error {
	if tx.closed {
		return NewError(op).Cause(ErrTxClosed).Err()
	}
	if !tx.writable {
		return NewError(op).Cause(ErrReadOnlyTx).Err()
	}
	return nil
}

// mutate loads the current state of id, applies fn and buffers the result
func (tx *Tx) mutate(op string, id NodeID, fn func(node *Node)) error {
	if err := tx.checkWritable(op); err != nil {
		return err
	}
	node, ok := tx.Node(id)
	if !ok {
		return NewError(op).Node(id).Cause(ErrNodeNotFound).Err()
	}
	fn(&node)
	tx.pending[id] = node
	return nil
}

// ApplyPathLoad adds PathLoadIncrement to every node on path, clamped to capacity.
// The whole path is checked before anything is buffered.
func (tx *Tx) ApplyPathLoad(path []NodeID) error {
	if err := tx.checkWritable("ApplyPathLoad"); err != nil {
		return err
	}
	for _, id := range path {
		if !tx.HasNode(id) {
			return NewError("ApplyPathLoad").Node(id).Cause(ErrNodeNotFound).Err()
		}
	}
	for _, id := range path {
		_ = tx.mutate("ApplyPathLoad", id, func(node *Node) {
			node.Load = math.Min(node.Load+PathLoadIncrement, node.Capacity)
		})
	}
	return nil
}

// validAmount reports whether amount is a finite, non-negative number
func validAmount(amount float64) bool {
	return amount >= 0 && !math.IsInf(amount, 0)
}

// AddLoad increases a node's load without clamping (used by the pheromone variant)
func (tx *Tx) AddLoad(id NodeID, amount float64) error {
	if !validAmount(amount) {
		return NewError("AddLoad").Node(id).Cause(fmt.Errorf("%w: load amount %v", ErrInvalidAmount, amount)).Err()
	}
	return tx.mutate("AddLoad", id, func(node *Node) {
		node.Load += amount
	})
}

// DecayLoad lowers every node's load by amount, floored at 0, skipping the excluded nodes
func (tx *Tx) DecayLoad(amount float64, exclude ...NodeID) error {
	if err := tx.checkWritable("DecayLoad"); err != nil {
		return err
	}
	if !validAmount(amount) {
		return NewError("DecayLoad").Cause(fmt.Errorf("%w: decay amount %v", ErrInvalidAmount, amount)).Err()
	}
	for _, id := range tx.n.order {
		if slices.Contains(exclude, id) {
			continue
		}
		_ = tx.mutate("DecayLoad", id, func(node *Node) {
			node.Load = math.Max(node.Load-amount, 0)
		})
	}
	return nil
}

// DepositPheromone adds amount to a node's pheromone level
func (tx *Tx) DepositPheromone(id NodeID, amount float64) error {
	if !validAmount(amount) {
		return NewError("DepositPheromone").Node(id).Cause(fmt.Errorf("%w: deposit %v", ErrInvalidAmount, amount)).Err()
	}
	return tx.mutate("DepositPheromone", id, func(node *Node) {
		node.Pheromone += amount
	})
}

// EvaporatePheromone multiplies every node's pheromone by rho, floored at PheromoneFloor
func (tx *Tx) EvaporatePheromone(rho float64) error {
	if err := tx.checkWritable("EvaporatePheromone"); err != nil {
		return err
	}
	if !(rho > 0 && rho < 1) {
		return NewError("EvaporatePheromone").Cause(fmt.Errorf("%w: %v", ErrInvalidRho, rho)).Err()
	}
	for _, id := range tx.n.order {
		_ = tx.mutate("EvaporatePheromone", id, func(node *Node) {
			node.Pheromone = math.Max(node.Pheromone*rho, PheromoneFloor)
		})
	}
	return nil
}

// RecordSelection increments a node's selection counter
func (tx *Tx) RecordSelection(id NodeID) error {
	return tx.mutate("RecordSelection", id, func(node *Node) {
		node.Selections++
	})
}

func (tx *Tx) commit() {
	for id, node := range tx.pending {
		stored := tx.n.nodes[id]
		stored.Load = node.Load
		stored.Pheromone = node.Pheromone
		stored.Selections = node.Selections
	}
	tx.close()
}

func (tx *Tx) discard() {
	tx.close()
}

func (tx *Tx) close() {
	tx.pending = nil
	tx.closed = true
}
