package graphql

import (
	"math"

	"github.com/graphql-go/graphql"

	"github.com/Co11apsar/route/pkg/algorithms"
	"github.com/Co11apsar/route/pkg/engine"
	"github.com/Co11apsar/route/pkg/network"
)

// pathView is the resolved shape of a findPath result
type pathView struct {
	RequestID string
	Path      []int
	Cost      *float64
	Found     bool
}

func newPathView(out engine.PathOutcome) pathView {
	v := pathView{RequestID: out.RequestID, Path: ids(out.Path), Found: out.Found}
	if out.Found && !math.IsInf(out.Cost, 0) {
		cost := out.Cost
		v.Cost = &cost
	}
	return v
}

func (v pathView) cost() any {
	if v.Cost == nil {
		return nil
	}
	return *v.Cost
}

func ids(path []network.NodeID) []int {
	out := make([]int, len(path))
	for i, id := range path {
		out[i] = int(id)
	}
	return out
}

func field[T any](typ graphql.Output, get func(T) any) *graphql.Field {
	return &graphql.Field{
		Type: typ,
		Resolve: func(p graphql.ResolveParams) (any, error) {
			if src, ok := p.Source.(T); ok {
				return get(src), nil
			}
			return nil, nil
		},
	}
}

var nodeType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Node",
	Fields: graphql.Fields{
		"id":         field(graphql.NewNonNull(graphql.Int), func(n network.NodeStatus) any { return int(n.ID) }),
		"capacity":   field(graphql.Float, func(n network.NodeStatus) any { return n.Capacity }),
		"load":       field(graphql.Float, func(n network.NodeStatus) any { return n.Load }),
		"loadRatio":  field(graphql.Float, func(n network.NodeStatus) any { return n.LoadRatio }),
		"security":   field(graphql.Int, func(n network.NodeStatus) any { return int(n.Security) }),
		"pheromone":  field(graphql.Float, func(n network.NodeStatus) any { return n.Pheromone }),
		"selections": field(graphql.Int, func(n network.NodeStatus) any { return int(n.Selections) }),
	},
})

var edgeType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Edge",
	Fields: graphql.Fields{
		"u":         field(graphql.NewNonNull(graphql.Int), func(e network.EdgeStatus) any { return int(e.U) }),
		"v":         field(graphql.NewNonNull(graphql.Int), func(e network.EdgeStatus) any { return int(e.V) }),
		"latency":   field(graphql.Float, func(e network.EdgeStatus) any { return e.Latency }),
		"bandwidth": field(graphql.Float, func(e network.EdgeStatus) any { return e.Bandwidth }),
		"security":  field(graphql.Int, func(e network.EdgeStatus) any { return int(e.Security) }),
	},
})

var infoType = graphql.NewObject(graphql.ObjectConfig{
	Name: "NetworkInfo",
	Fields: graphql.Fields{
		"source":    field(graphql.String, func(i engine.Info) any { return string(i.Source) }),
		"seed":      field(graphql.String, func(i engine.Info) any { return formatSeed(i.Seed) }),
		"nodes":     field(graphql.Int, func(i engine.Info) any { return i.Nodes }),
		"edges":     field(graphql.Int, func(i engine.Info) any { return i.Edges }),
		"hasDelays": field(graphql.Boolean, func(i engine.Info) any { return i.HasDelays }),
	},
})

var networkType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Network",
	Fields: graphql.Fields{
		"nodes": field(graphql.NewList(nodeType), func(s network.Snapshot) any { return s.SortedNodes() }),
		"edges": field(graphql.NewList(edgeType), func(s network.Snapshot) any { return s.SortedEdges() }),
	},
})

var pathResultType = graphql.NewObject(graphql.ObjectConfig{
	Name: "PathResult",
	Fields: graphql.Fields{
		"requestId": field(graphql.String, func(v pathView) any { return v.RequestID }),
		"path":      field(graphql.NewList(graphql.Int), func(v pathView) any { return v.Path }),
		"found":     field(graphql.NewNonNull(graphql.Boolean), func(v pathView) any { return v.Found }),
		"cost":      field(graphql.Float, pathView.cost),
	},
})

var hopType = graphql.NewObject(graphql.ObjectConfig{
	Name: "HopDecision",
	Fields: graphql.Fields{
		"from":        field(graphql.Int, func(h algorithms.HopDecision) any { return int(h.From) }),
		"shortestHop": field(graphql.Int, func(h algorithms.HopDecision) any { return int(h.ShortestHop) }),
		"antHop":      field(graphql.Int, func(h algorithms.HopDecision) any { return int(h.AntHop) }),
		"chosen":      field(graphql.Int, func(h algorithms.HopDecision) any { return int(h.Chosen) }),
		"antAccepted": field(graphql.Boolean, func(h algorithms.HopDecision) any { return h.AntAccepted }),
		"delay":       field(graphql.Float, func(h algorithms.HopDecision) any { return h.Delay }),
	},
})

var routeResultType = graphql.NewObject(graphql.ObjectConfig{
	Name: "RouteResult",
	Fields: graphql.Fields{
		"requestId":  field(graphql.String, func(o engine.RouteOutcome) any { return o.RequestID }),
		"path":       field(graphql.NewList(graphql.Int), func(o engine.RouteOutcome) any { return ids(o.Path) }),
		"totalDelay": field(graphql.Float, func(o engine.RouteOutcome) any { return o.TotalDelay }),
		"hops":       field(graphql.NewList(hopType), func(o engine.RouteOutcome) any { return o.Hops }),
		"antHops":    field(graphql.Int, func(o engine.RouteOutcome) any { return o.AntHops() }),
	},
})

var recordType = graphql.NewObject(graphql.ObjectConfig{
	Name: "PathRecord",
	Fields: graphql.Fields{
		"current":  field(graphql.Int, func(r algorithms.PathRecord) any { return int(r.Current) }),
		"visited":  field(graphql.NewList(graphql.Int), func(r algorithms.PathRecord) any { return ids(r.Visited) }),
		"path":     field(graphql.NewList(graphql.Int), func(r algorithms.PathRecord) any { return ids(r.Path) }),
		"frontier": field(graphql.Int, func(r algorithms.PathRecord) any { return len(r.Frontier) }),
	},
})

var weightsInput = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "WeightsInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"latency":  &graphql.InputObjectFieldConfig{Type: graphql.Float, DefaultValue: 0.0},
		"load":     &graphql.InputObjectFieldConfig{Type: graphql.Float, DefaultValue: 0.0},
		"security": &graphql.InputObjectFieldConfig{Type: graphql.Float, DefaultValue: 0.0},
	},
})
