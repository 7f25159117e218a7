package graphql

import (
	"context"

	"github.com/graphql-go/graphql"
)

// Execute runs a decoded request against schema
func Execute(ctx context.Context, schema graphql.Schema, req GraphQLRequest) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})
}

// ExecuteQuery executes a GraphQL query against a schema
func ExecuteQuery(ctx context.Context, query string, schema graphql.Schema) *graphql.Result {
	return Execute(ctx, schema, GraphQLRequest{Query: query})
}

// ExecuteQueryWithVariables executes a GraphQL query with variables
func ExecuteQueryWithVariables(ctx context.Context, query string, schema graphql.Schema, variables map[string]any) *graphql.Result {
	return Execute(ctx, schema, GraphQLRequest{Query: query, Variables: variables})
}
