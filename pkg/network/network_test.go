package network

import (
	"errors"
	"testing"
)

// newTestNetwork builds nodes 0..n-1 with the given capacity and security
func newTestNetwork(t *testing.T, n int, capacity float64, security SecurityLevel) *Network {
	t.Helper()
	net := New()
	for i := 0; i < n; i++ {
		if err := net.AddNode(NodeSpec{ID: NodeID(i), Capacity: capacity, Security: security}); err != nil {
			t.Fatalf("AddNode(%d) failed: %v", i, err)
		}
	}
	return net
}

func TestAddNode_Validation(t *testing.T) {
	tests := []struct {
		name    string
		spec    NodeSpec
		wantErr error
	}{
		{"valid", NodeSpec{ID: 1, Capacity: 100, Security: 2}, nil},
		{"zero capacity", NodeSpec{ID: 2, Capacity: 0, Security: 2}, ErrInvalidCapacity},
		{"negative capacity", NodeSpec{ID: 3, Capacity: -5, Security: 2}, ErrInvalidCapacity},
		{"security too low", NodeSpec{ID: 4, Capacity: 10, Security: 0}, ErrInvalidSecurity},
		{"security too high", NodeSpec{ID: 5, Capacity: 10, Security: 4}, ErrInvalidSecurity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net := New()
			err := net.AddNode(tt.spec)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("AddNode() unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("AddNode() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAddNode_Duplicate(t *testing.T) {
	net := newTestNetwork(t, 1, 100, 2)
	err := net.AddNode(NodeSpec{ID: 0, Capacity: 50, Security: 1})
	if !errors.Is(err, ErrDuplicateNode) {
		t.Fatalf("expected ErrDuplicateNode, got %v", err)
	}

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected *NetworkError, got %T", err)
	}
	if netErr.Op != "AddNode" || netErr.Entity != "node" {
		t.Errorf("unexpected error details: %+v", netErr)
	}
}

func TestAddNode_InitialState(t *testing.T) {
	net := newTestNetwork(t, 1, 120, 3)
	node, err := net.Node(0)
	if err != nil {
		t.Fatalf("Node() failed: %v", err)
	}
	if node.Load != 0 {
		t.Errorf("initial load = %v, want 0", node.Load)
	}
	if node.Pheromone != InitialPheromone {
		t.Errorf("initial pheromone = %v, want %v", node.Pheromone, InitialPheromone)
	}
	if node.Selections != 0 {
		t.Errorf("initial selections = %v, want 0", node.Selections)
	}
}

func TestAddEdge_DerivedSecurity(t *testing.T) {
	net := New()
	net.AddNode(NodeSpec{ID: 1, Capacity: 100, Security: 3})
	net.AddNode(NodeSpec{ID: 2, Capacity: 100, Security: 1})

	if err := net.AddEdge(EdgeSpec{U: 1, V: 2, Latency: 10, Bandwidth: 100}); err != nil {
		t.Fatalf("AddEdge failed: %v", err)
	}

	edge, err := net.Edge(1, 2)
	if err != nil {
		t.Fatalf("Edge failed: %v", err)
	}
	if edge.Security != 1 {
		t.Errorf("edge security = %d, want 1", edge.Security)
	}
}

func TestAddEdge_Symmetry(t *testing.T) {
	net := newTestNetwork(t, 3, 100, 2)
	net.AddEdge(EdgeSpec{U: 2, V: 0, Latency: 17, Bandwidth: 200})

	forward, err := net.Edge(0, 2)
	if err != nil {
		t.Fatalf("Edge(0,2) failed: %v", err)
	}
	backward, err := net.Edge(2, 0)
	if err != nil {
		t.Fatalf("Edge(2,0) failed: %v", err)
	}
	if forward != backward {
		t.Errorf("edge lookups differ: %+v vs %+v", forward, backward)
	}
}

func TestAddEdge_Errors(t *testing.T) {
	tests := []struct {
		name    string
		spec    EdgeSpec
		wantErr error
	}{
		{"self loop", EdgeSpec{U: 0, V: 0, Latency: 1, Bandwidth: 1}, ErrSelfLoop},
		{"missing endpoint", EdgeSpec{U: 0, V: 9, Latency: 1, Bandwidth: 1}, ErrNodeNotFound},
		{"zero latency", EdgeSpec{U: 0, V: 1, Latency: 0, Bandwidth: 1}, ErrInvalidLatency},
		{"zero bandwidth", EdgeSpec{U: 0, V: 1, Latency: 1, Bandwidth: 0}, ErrInvalidBandwidth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net := newTestNetwork(t, 2, 100, 2)
			if err := net.AddEdge(tt.spec); !errors.Is(err, tt.wantErr) {
				t.Errorf("AddEdge() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAddEdge_DuplicateEitherOrder(t *testing.T) {
	net := newTestNetwork(t, 2, 100, 2)
	if err := net.AddEdge(EdgeSpec{U: 0, V: 1, Latency: 5, Bandwidth: 100}); err != nil {
		t.Fatalf("AddEdge failed: %v", err)
	}
	if err := net.AddEdge(EdgeSpec{U: 1, V: 0, Latency: 7, Bandwidth: 100}); !errors.Is(err, ErrDuplicateEdge) {
		t.Errorf("expected ErrDuplicateEdge, got %v", err)
	}
}

func TestStatus_CollapsesEdgeSymmetry(t *testing.T) {
	net := newTestNetwork(t, 3, 100, 2)
	net.AddEdge(EdgeSpec{U: 1, V: 0, Latency: 10, Bandwidth: 100})
	net.AddEdge(EdgeSpec{U: 1, V: 2, Latency: 20, Bandwidth: 500})

	snap := net.Status()
	if len(snap.Nodes) != 3 {
		t.Errorf("expected 3 nodes, got %d", len(snap.Nodes))
	}
	if len(snap.Edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(snap.Edges))
	}
	if _, ok := snap.Edges["0-1"]; !ok {
		t.Errorf("expected key 0-1, got %v", snap.Edges)
	}
	if _, ok := snap.Edges["1-0"]; ok {
		t.Errorf("reverse key 1-0 must not appear")
	}

	edges := snap.SortedEdges()
	if edges[0].U != 0 || edges[0].V != 1 || edges[1].U != 1 || edges[1].V != 2 {
		t.Errorf("unexpected edge order: %+v", edges)
	}
}

func TestSetDelays_Validation(t *testing.T) {
	net := newTestNetwork(t, 3, 100, 2)

	partial := NewDelayMatrix([]NodeID{0, 1})
	if err := net.SetDelays(partial); !errors.Is(err, ErrInvalidDelayMatrix) {
		t.Errorf("expected ErrInvalidDelayMatrix for partial matrix, got %v", err)
	}

	full := NewDelayMatrix([]NodeID{0, 1, 2})
	full.Set(0, 1, 50)
	full.Set(1, 2, 60)
	full.Set(0, 2, 70)
	if err := net.SetDelays(full); err != nil {
		t.Fatalf("SetDelays failed: %v", err)
	}

	if d, ok := full.Delay(2, 1); !ok || d != 60 {
		t.Errorf("Delay(2,1) = %v, %v; want 60, true", d, ok)
	}
}

func TestDelayMatrix_RejectsBadEntries(t *testing.T) {
	m := NewDelayMatrix([]NodeID{0, 1})
	if err := m.Set(0, 0, 5); !errors.Is(err, ErrInvalidDelayMatrix) {
		t.Errorf("non-zero diagonal: got %v", err)
	}
	if err := m.Set(0, 1, -1); !errors.Is(err, ErrInvalidDelayMatrix) {
		t.Errorf("negative delay: got %v", err)
	}
	if err := m.Set(0, 7, 1); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("unknown node: got %v", err)
	}
}
