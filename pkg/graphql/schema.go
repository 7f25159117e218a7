// Package graphql exposes the routing engine over GraphQL: network status and
// search traces as queries; initialisation, path finding, routing,
// evaporation and decay as mutations.
package graphql

import (
	"fmt"
	"strconv"

	"github.com/graphql-go/graphql"

	"github.com/Co11apsar/route/pkg/algorithms"
	"github.com/Co11apsar/route/pkg/engine"
	"github.com/Co11apsar/route/pkg/network"
	"github.com/Co11apsar/route/pkg/validation"
)

func formatSeed(seed uint64) string {
	return strconv.FormatUint(seed, 10)
}

// NewSchema builds the schema served for eng
func NewSchema(eng *engine.Engine) (graphql.Schema, error) {
	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"health": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return "ok", nil
				},
			},
			"info": &graphql.Field{
				Type: infoType,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return eng.Info()
				},
			},
			"status": &graphql.Field{
				Type: networkType,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return eng.Status()
				},
			},
			"node": &graphql.Field{
				Type: nodeType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: resolveNode(eng),
			},
			"trace": &graphql.Field{
				Type: graphql.NewList(recordType),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return eng.LastTrace(), nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"init": &graphql.Field{
				Type: infoType,
				Args: graphql.FieldConfigArgument{
					"seed": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					seed, _ := p.Args["seed"].(int)
					if seed < 0 {
						return nil, fmt.Errorf("seed must not be negative, got %d", seed)
					}
					return eng.InitRandom(uint64(seed))
				},
			},
			"findPath": &graphql.Field{
				Type: pathResultType,
				Args: graphql.FieldConfigArgument{
					"start":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"end":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"weights": &graphql.ArgumentConfig{Type: weightsInput},
				},
				Resolve: resolveFindPath(eng),
			},
			"route": &graphql.Field{
				Type: routeResultType,
				Args: graphql.FieldConfigArgument{
					"source":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"destination": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					src, _ := p.Args["source"].(int)
					dst, _ := p.Args["destination"].(int)
					return eng.Route(p.Context, network.NodeID(src), network.NodeID(dst))
				},
			},
			"evaporate": &graphql.Field{
				Type: networkType,
				Args: graphql.FieldConfigArgument{
					"rho": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					rho, _ := p.Args["rho"].(float64)
					if err := validation.ValidateEvaporateRequest(&validation.EvaporateRequest{Rho: rho}); err != nil {
						return nil, err
					}
					if err := eng.Evaporate(rho); err != nil {
						return nil, err
					}
					return eng.Status()
				},
			},
			"decay": &graphql.Field{
				Type: networkType,
				Args: graphql.FieldConfigArgument{
					"amount":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"exclude": &graphql.ArgumentConfig{Type: graphql.NewList(graphql.NewNonNull(graphql.Int))},
				},
				Resolve: resolveDecay(eng),
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("failed to create schema: %w", err)
	}
	return schema, nil
}

func resolveNode(eng *engine.Engine) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		id, _ := p.Args["id"].(int)
		snap, err := eng.Status()
		if err != nil {
			return nil, err
		}
		st, ok := snap.Nodes[network.NodeID(id)]
		if !ok {
			return nil, network.NewError("node").Node(network.NodeID(id)).Cause(network.ErrNodeNotFound).Err()
		}
		return st, nil
	}
}

func resolveFindPath(eng *engine.Engine) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		start, _ := p.Args["start"].(int)
		end, _ := p.Args["end"].(int)

		var weights *algorithms.Weights
		if raw, ok := p.Args["weights"].(map[string]any); ok {
			req := validation.WeightsRequest{
				Latency:  floatArg(raw, "latency"),
				Load:     floatArg(raw, "load"),
				Security: floatArg(raw, "security"),
			}
			if err := validation.Struct(&req); err != nil {
				return nil, err
			}
			weights = &algorithms.Weights{Latency: req.Latency, Load: req.Load, Security: req.Security}
		}

		out, err := eng.FindPath(p.Context, network.NodeID(start), network.NodeID(end), weights)
		if err != nil {
			return nil, err
		}
		return newPathView(out), nil
	}
}

func resolveDecay(eng *engine.Engine) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		req := validation.DecayRequest{}
		req.Amount, _ = p.Args["amount"].(float64)
		if raw, ok := p.Args["exclude"].([]any); ok {
			for _, v := range raw {
				if id, ok := v.(int); ok {
					req.Exclude = append(req.Exclude, id)
				}
			}
		}
		if err := validation.ValidateDecayRequest(&req); err != nil {
			return nil, err
		}

		exclude := make([]network.NodeID, len(req.Exclude))
		for i, id := range req.Exclude {
			exclude[i] = network.NodeID(id)
		}
		if err := eng.DecayLoad(req.Amount, exclude...); err != nil {
			return nil, err
		}
		return eng.Status()
	}
}

func floatArg(args map[string]any, name string) float64 {
	switch v := args[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}
