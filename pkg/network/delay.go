package network

import (
	"fmt"
	"math"
)

// DelayMatrix is a complete pairwise latency table, independent of the edge adjacency.
// It is symmetric with a zero diagonal.
type DelayMatrix struct {
	ids    []NodeID
	index  map[NodeID]int
	values [][]float64
}

// NewDelayMatrix creates a zeroed matrix over the given node IDs
func NewDelayMatrix(ids []NodeID) *DelayMatrix {
	m := &DelayMatrix{
		ids:    append([]NodeID(nil), ids...),
		index:  make(map[NodeID]int, len(ids)),
		values: make([][]float64, len(ids)),
	}
	for i, id := range ids {
		m.index[id] = i
		m.values[i] = make([]float64, len(ids))
	}
	return m
}

// Set stores delay for both (u, v) and (v, u)
func (m *DelayMatrix) Set(u, v NodeID, delay float64) error {
	i, ok := m.index[u]
	if !ok {
		return NewError("SetDelay").Node(u).Cause(ErrNodeNotFound).Err()
	}
	j, ok := m.index[v]
	if !ok {
		return NewError("SetDelay").Node(v).Cause(ErrNodeNotFound).Err()
	}
	if u == v {
		if delay != 0 {
			return NewError("SetDelay").Delay().Cause(fmt.Errorf("%w: diagonal must be zero", ErrInvalidDelayMatrix)).Err()
		}
		return nil
	}
	if delay < 0 || math.IsNaN(delay) || math.IsInf(delay, 0) {
		return NewError("SetDelay").Delay().Cause(fmt.Errorf("%w: delay %v for %d-%d", ErrInvalidDelayMatrix, delay, u, v)).Err()
	}
	m.values[i][j] = delay
	m.values[j][i] = delay
	return nil
}

// Delay returns the delay between u and v
func (m *DelayMatrix) Delay(u, v NodeID) (float64, bool) {
	i, ok := m.index[u]
	if !ok {
		return 0, false
	}
	j, ok := m.index[v]
	if !ok {
		return 0, false
	}
	return m.values[i][j], true
}

// IDs returns the node IDs covered by the matrix, in construction order
func (m *DelayMatrix) IDs() []NodeID {
	return append([]NodeID(nil), m.ids...)
}

// Size returns the number of nodes covered
func (m *DelayMatrix) Size() int {
	return len(m.ids)
}

// validate checks symmetry, the zero diagonal and coverage of exactly the given nodes
func (m *DelayMatrix) validate(nodes map[NodeID]*Node) error {
	if len(m.ids) != len(nodes) {
		return fmt.Errorf("%w: covers %d nodes, network has %d", ErrInvalidDelayMatrix, len(m.ids), len(nodes))
	}
	for _, id := range m.ids {
		if _, ok := nodes[id]; !ok {
			return fmt.Errorf("%w: node %d is not in the network", ErrInvalidDelayMatrix, id)
		}
	}
	for i := range m.values {
		if m.values[i][i] != 0 {
			return fmt.Errorf("%w: non-zero diagonal at %d", ErrInvalidDelayMatrix, m.ids[i])
		}
		for j := i + 1; j < len(m.values); j++ {
			if m.values[i][j] != m.values[j][i] {
				return fmt.Errorf("%w: asymmetric entry %d-%d", ErrInvalidDelayMatrix, m.ids[i], m.ids[j])
			}
		}
	}
	return nil
}
