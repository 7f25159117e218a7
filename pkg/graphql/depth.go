package graphql

import (
	"fmt"
	"strings"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
)

// DefaultMaxDepth bounds query nesting; the deepest useful query is
// route { hops { ... } }
const DefaultMaxDepth = 4

// calculateQueryDepth returns the deepest selection-set nesting of any operation
func calculateQueryDepth(document *ast.Document) int {
	fragments := make(map[string]*ast.FragmentDefinition)
	for _, definition := range document.Definitions {
		if frag, ok := definition.(*ast.FragmentDefinition); ok {
			fragments[frag.Name.Value] = frag
		}
	}

	maxDepth := 0
	for _, definition := range document.Definitions {
		if op, ok := definition.(*ast.OperationDefinition); ok {
			maxDepth = max(maxDepth, selectionSetDepth(op.SelectionSet, 1, fragments, map[string]bool{}))
		}
	}
	return maxDepth
}

func selectionSetDepth(set *ast.SelectionSet, depth int, fragments map[string]*ast.FragmentDefinition, seen map[string]bool) int {
	if set == nil || len(set.Selections) == 0 {
		return depth - 1
	}

	deepest := depth
	for _, selection := range set.Selections {
		switch sel := selection.(type) {
		case *ast.Field:
			if strings.HasPrefix(sel.Name.Value, "__") {
				continue
			}
			if sel.SelectionSet != nil {
				deepest = max(deepest, selectionSetDepth(sel.SelectionSet, depth+1, fragments, seen))
			}
		case *ast.InlineFragment:
			deepest = max(deepest, selectionSetDepth(sel.SelectionSet, depth, fragments, seen))
		case *ast.FragmentSpread:
			name := sel.Name.Value
			if frag, ok := fragments[name]; ok && !seen[name] {
				seen[name] = true
				deepest = max(deepest, selectionSetDepth(frag.SelectionSet, depth, fragments, seen))
				delete(seen, name)
			}
		}
	}
	return deepest
}

// ValidateQueryDepth parses query and rejects it if it nests deeper than maxDepth
func ValidateQueryDepth(query string, maxDepth int) error {
	document, err := parser.Parse(parser.ParseParams{Source: query})
	if err != nil {
		return fmt.Errorf("failed to parse query: %w", err)
	}
	if depth := calculateQueryDepth(document); depth > maxDepth {
		return fmt.Errorf("query depth %d exceeds maximum allowed depth %d", depth, maxDepth)
	}
	return nil
}

// depthError wraps a depth violation as a GraphQL result
func depthError(err error) *graphql.Result {
	return &graphql.Result{
		Errors: []gqlerrors.FormattedError{gqlerrors.FormatError(err)},
	}
}
