package graphql

import (
	"encoding/json"
	"net/http"

	"github.com/graphql-go/graphql"

	"github.com/Co11apsar/route/pkg/engine"
)

// GraphQLRequest represents a GraphQL HTTP request
type GraphQLRequest struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

// GraphQLResponse represents a GraphQL HTTP response
type GraphQLResponse struct {
	Data   any            `json:"data,omitempty"`
	Errors []GraphQLError `json:"errors,omitempty"`
}

// GraphQLError represents a GraphQL error
type GraphQLError struct {
	Message string `json:"message"`
}

// GraphQLHandler handles GraphQL HTTP requests
type GraphQLHandler struct {
	schema   graphql.Schema
	maxDepth int

	// requestID extracts the id assigned by the HTTP middleware, if any
	requestID func(*http.Request) string
}

// NewGraphQLHandler creates a GraphQL handler. A maxDepth of 0 means DefaultMaxDepth.
func NewGraphQLHandler(schema graphql.Schema, maxDepth int, requestID func(*http.Request) string) *GraphQLHandler {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &GraphQLHandler{schema: schema, maxDepth: maxDepth, requestID: requestID}
}

// ServeHTTP executes POSTed queries; CORS is left to the surrounding middleware
func (h *GraphQLHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req GraphQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if h.requestID != nil {
		if id := h.requestID(r); id != "" {
			ctx = engine.WithRequestID(ctx, id)
		}
	}

	var result *graphql.Result
	if err := ValidateQueryDepth(req.Query, h.maxDepth); err != nil {
		result = depthError(err)
	} else {
		result = Execute(ctx, h.schema, req)
	}

	response := GraphQLResponse{Data: result.Data}
	if result.HasErrors() {
		response.Errors = make([]GraphQLError, len(result.Errors))
		for i, err := range result.Errors {
			response.Errors[i] = GraphQLError{Message: err.Message}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
