package network

import (
	"fmt"
)

// NodeID identifies a node. IDs are unique and stable for the lifetime of a Network.
type NodeID int

// SecurityLevel is the security classification of a node (1 = lowest, 3 = highest)
type SecurityLevel int

const (
	SecurityLow    SecurityLevel = 1
	SecurityMedium SecurityLevel = 2
	SecurityHigh   SecurityLevel = 3
)

// Validate reports whether the level is inside the fixed domain {1,2,3}
func (s SecurityLevel) Validate() error {
	if s < SecurityLow || s > SecurityHigh {
		return fmt.Errorf("%w: %d", ErrInvalidSecurity, int(s))
	}
	return nil
}

const (
	// PathLoadIncrement is the load one routed request adds to every node on its path
	PathLoadIncrement = 3.0

	// InitialPheromone is the pheromone level a node starts with
	InitialPheromone = 1.0

	// PheromoneFloor is the lower bound enforced by evaporation
	PheromoneFloor = 0.1
)

// NodeSpec describes a node to be added to a network
type NodeSpec struct {
	ID       NodeID
	Capacity float64
	Security SecurityLevel
}

// EdgeSpec describes an undirected edge to be added to a network
type EdgeSpec struct {
	U, V      NodeID
	Latency   float64
	Bandwidth float64
}

// Node is the stored state of a network node.
// Only Load, Pheromone and Selections ever change after creation.
type Node struct {
	ID         NodeID
	Capacity   float64
	Load       float64
	Security   SecurityLevel
	Pheromone  float64
	Selections uint64
}

// LoadRatio returns current load divided by capacity
func (n Node) LoadRatio() float64 {
	return n.Load / n.Capacity
}

// EdgeKey is the normalised (unordered) identity of an edge
type EdgeKey struct {
	Lo, Hi NodeID
}

// KeyOf returns the normalised key for the pair (u, v)
func KeyOf(u, v NodeID) EdgeKey {
	if u > v {
		u, v = v, u
	}
	return EdgeKey{Lo: u, Hi: v}
}

// String formats the key the way the status surface exposes it ("u-v", u < v)
func (k EdgeKey) String() string {
	return fmt.Sprintf("%d-%d", k.Lo, k.Hi)
}

// Edge is an undirected link. Security is derived once at creation.
type Edge struct {
	Key       EdgeKey
	Latency   float64
	Bandwidth float64
	Security  SecurityLevel
}

// Other returns the endpoint of the edge that is not id
func (e Edge) Other(id NodeID) NodeID {
	if e.Key.Lo == id {
		return e.Key.Hi
	}
	return e.Key.Lo
}

// Statistics tracks transaction outcomes on a network
type Statistics struct {
	Commits   uint64
	Discards  uint64
	NodeCount int
	EdgeCount int
}
