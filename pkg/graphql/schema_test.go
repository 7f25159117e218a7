package graphql

import (
	"context"
	"strings"
	"testing"

	"github.com/graphql-go/graphql"

	"github.com/Co11apsar/route/pkg/engine"
	"github.com/Co11apsar/route/pkg/network"
)

// newDiamondEngine installs the four-node diamond with an isolated node 4
func newDiamondEngine(t *testing.T) *engine.Engine {
	t.Helper()
	eng, err := engine.New(engine.DefaultOptions())
	if err != nil {
		t.Fatalf("engine.New failed: %v", err)
	}

	net := network.New()
	for i := 0; i < 5; i++ {
		if err := net.AddNode(network.NodeSpec{ID: network.NodeID(i), Capacity: 100, Security: 2}); err != nil {
			t.Fatalf("AddNode failed: %v", err)
		}
	}
	for _, e := range []network.EdgeSpec{
		{U: 0, V: 1, Latency: 10, Bandwidth: 100},
		{U: 1, V: 3, Latency: 10, Bandwidth: 100},
		{U: 0, V: 2, Latency: 30, Bandwidth: 100},
		{U: 2, V: 3, Latency: 5, Bandwidth: 100},
	} {
		if err := net.AddEdge(e); err != nil {
			t.Fatalf("AddEdge failed: %v", err)
		}
	}
	if _, err := eng.Install(net, 1); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	return eng
}

func newTestSchema(t *testing.T, eng *engine.Engine) graphql.Schema {
	t.Helper()
	schema, err := NewSchema(eng)
	if err != nil {
		t.Fatalf("NewSchema() error = %v", err)
	}
	return schema
}

func mustData(t *testing.T, result *graphql.Result) map[string]any {
	t.Helper()
	if result.HasErrors() {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	data, ok := result.Data.(map[string]any)
	if !ok {
		t.Fatalf("unexpected data type %T", result.Data)
	}
	return data
}

func intList(t *testing.T, v any) []int {
	t.Helper()
	raw, ok := v.([]any)
	if !ok {
		t.Fatalf("expected list, got %T", v)
	}
	out := make([]int, len(raw))
	for i, item := range raw {
		out[i] = item.(int)
	}
	return out
}

func TestSchema_HasQueryAndMutation(t *testing.T) {
	schema := newTestSchema(t, newDiamondEngine(t))
	if schema.QueryType() == nil {
		t.Error("schema missing Query type")
	}
	if schema.MutationType() == nil {
		t.Error("schema missing Mutation type")
	}
}

func TestQuery_Status(t *testing.T) {
	schema := newTestSchema(t, newDiamondEngine(t))

	data := mustData(t, ExecuteQuery(context.Background(), `{
		status {
			nodes { id capacity load security pheromone }
			edges { u v latency security }
		}
	}`, schema))

	status := data["status"].(map[string]any)
	nodes := status["nodes"].([]any)
	edges := status["edges"].([]any)
	if len(nodes) != 5 {
		t.Errorf("expected 5 nodes, got %d", len(nodes))
	}
	if len(edges) != 4 {
		t.Errorf("expected 4 edges, got %d", len(edges))
	}

	first := edges[0].(map[string]any)
	if first["u"] != 0 || first["v"] != 1 || first["latency"] != 10.0 {
		t.Errorf("unexpected first edge: %v", first)
	}
	if nodes[0].(map[string]any)["pheromone"] != network.InitialPheromone {
		t.Errorf("unexpected pheromone: %v", nodes[0])
	}
}

func TestQuery_Node(t *testing.T) {
	schema := newTestSchema(t, newDiamondEngine(t))

	data := mustData(t, ExecuteQuery(context.Background(), `{ node(id: 2) { id capacity } }`, schema))
	node := data["node"].(map[string]any)
	if node["id"] != 2 || node["capacity"] != 100.0 {
		t.Errorf("unexpected node: %v", node)
	}

	result := ExecuteQuery(context.Background(), `{ node(id: 42) { id } }`, schema)
	if !result.HasErrors() || !strings.Contains(result.Errors[0].Message, "not found") {
		t.Errorf("expected not found error, got %v", result.Errors)
	}
}

func TestMutation_FindPath(t *testing.T) {
	eng := newDiamondEngine(t)
	schema := newTestSchema(t, eng)

	data := mustData(t, ExecuteQuery(context.Background(), `mutation {
		findPath(start: 0, end: 3, weights: {latency: 1}) { path cost found requestId }
	}`, schema))

	res := data["findPath"].(map[string]any)
	if path := intList(t, res["path"]); len(path) != 3 || path[0] != 0 || path[1] != 1 || path[2] != 3 {
		t.Errorf("path = %v, want [0 1 3]", path)
	}
	if res["cost"] != 20.0 || res["found"] != true {
		t.Errorf("unexpected result: %v", res)
	}
	if res["requestId"] == "" {
		t.Error("expected a request id")
	}

	snap, _ := eng.Status()
	if snap.Nodes[1].Load != network.PathLoadIncrement {
		t.Errorf("node 1 load = %v, want %v", snap.Nodes[1].Load, network.PathLoadIncrement)
	}

	trace := mustData(t, ExecuteQuery(context.Background(), `{ trace { current visited frontier } }`, schema))
	if records := trace["trace"].([]any); len(records) == 0 {
		t.Error("expected trace records after findPath")
	}
}

func TestMutation_FindPathNotFound(t *testing.T) {
	schema := newTestSchema(t, newDiamondEngine(t))

	data := mustData(t, ExecuteQueryWithVariables(context.Background(),
		`mutation($s: Int!, $e: Int!) { findPath(start: $s, end: $e) { path cost found } }`,
		schema, map[string]any{"s": 0, "e": 4}))

	res := data["findPath"].(map[string]any)
	if res["found"] != false || res["cost"] != nil {
		t.Errorf("unexpected result: %v", res)
	}
}

func TestMutation_FindPathErrors(t *testing.T) {
	schema := newTestSchema(t, newDiamondEngine(t))

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"unknown node", `mutation { findPath(start: 0, end: 9) { found } }`, "not found"},
		{"negative weight", `mutation { findPath(start: 0, end: 3, weights: {load: -1}) { found } }`, "Load"},
		{"missing argument", `mutation { findPath(start: 0) { found } }`, "end"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ExecuteQuery(context.Background(), tt.query, schema)
			if !result.HasErrors() {
				t.Fatal("expected an error")
			}
			if !strings.Contains(result.Errors[0].Message, tt.want) {
				t.Errorf("error %q does not mention %q", result.Errors[0].Message, tt.want)
			}
		})
	}
}

func TestMutation_RouteEvaporateDecay(t *testing.T) {
	eng, err := engine.New(engine.DefaultOptions())
	if err != nil {
		t.Fatalf("engine.New failed: %v", err)
	}
	schema := newTestSchema(t, eng)

	data := mustData(t, ExecuteQuery(context.Background(), `mutation { init(seed: 42) { source nodes edges hasDelays seed } }`, schema))
	info := data["init"].(map[string]any)
	if info["source"] != "random" || info["nodes"] != 20 || info["hasDelays"] != true || info["seed"] != "42" {
		t.Errorf("unexpected info: %v", info)
	}

	data = mustData(t, ExecuteQuery(context.Background(), `mutation {
		route(source: 0, destination: 19) { path totalDelay antHops hops { from chosen antAccepted delay } }
	}`, schema))
	route := data["route"].(map[string]any)
	path := intList(t, route["path"])
	if path[0] != 0 || path[len(path)-1] != 19 {
		t.Errorf("route path = %v", path)
	}
	if hops := route["hops"].([]any); len(hops) != len(path)-1 {
		t.Errorf("expected %d hops, got %d", len(path)-1, len(hops))
	}

	mustData(t, ExecuteQuery(context.Background(), `mutation { evaporate(rho: 0.5) { nodes { pheromone } } }`, schema))
	if result := ExecuteQuery(context.Background(), `mutation { evaporate(rho: 1.5) { nodes { id } } }`, schema); !result.HasErrors() {
		t.Error("expected rho validation error")
	}

	data = mustData(t, ExecuteQuery(context.Background(), `mutation { decay(amount: 100, exclude: [0]) { nodes { id load } } }`, schema))
	for _, raw := range data["decay"].(map[string]any)["nodes"].([]any) {
		node := raw.(map[string]any)
		if node["id"] != 0 && node["load"] != 0.0 {
			t.Errorf("node %v load = %v after full decay", node["id"], node["load"])
		}
	}
	if snap, _ := eng.Status(); snap.Nodes[0].Load < 1 {
		t.Errorf("excluded entry node lost its load: %v", snap.Nodes[0].Load)
	}
}

func TestQuery_NotInitialized(t *testing.T) {
	eng, _ := engine.New(engine.DefaultOptions())
	schema := newTestSchema(t, eng)

	result := ExecuteQuery(context.Background(), `{ status { nodes { id } } }`, schema)
	if !result.HasErrors() || !strings.Contains(result.Errors[0].Message, engine.ErrNotInitialized.Error()) {
		t.Errorf("expected not initialized error, got %v", result.Errors)
	}
}

func TestValidateQueryDepth(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		max     int
		wantErr bool
	}{
		{"flat", `{ health }`, 1, false},
		{"status", `{ status { nodes { id } } }`, 3, false},
		{"too deep", `{ status { nodes { id } } }`, 2, true},
		{"fragment", `{ status { ...N } } fragment N on Network { nodes { id } }`, 2, true},
		{"introspection ignored", `{ __schema { types { name } } }`, 1, false},
		{"parse error", `{ status {`, 5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQueryDepth(tt.query, tt.max)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateQueryDepth() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
