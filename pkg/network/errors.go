package network

import (
	"errors"
	"fmt"
)

// Construction errors
var (
	ErrDuplicateNode      = errors.New("node already exists")
	ErrInvalidCapacity    = errors.New("capacity must be positive")
	ErrInvalidSecurity    = errors.New("security level must be 1, 2 or 3")
	ErrSelfLoop           = errors.New("edge endpoints must differ")
	ErrDuplicateEdge      = errors.New("edge already exists")
	ErrInvalidLatency     = errors.New("latency must be positive")
	ErrInvalidBandwidth   = errors.New("bandwidth must be positive")
	ErrInvalidDelayMatrix = errors.New("invalid delay matrix")
)

// Lookup and mutation errors
var (
	ErrNodeNotFound  = errors.New("node not found")
	ErrEdgeNotFound  = errors.New("edge not found")
	ErrReadOnlyTx    = errors.New("transaction is read-only")
	ErrTxClosed      = errors.New("transaction has already ended")
	ErrInvalidRho    = errors.New("evaporation rate must lie in (0, 1)")
	ErrNoDelays      = errors.New("network has no delay matrix")
	ErrInvalidAmount = errors.New("amount must be a finite, non-negative number")
)

// NetworkError provides structured error information for network operations.
type NetworkError struct {
	Op     string // Operation that failed (e.g., "AddEdge", "ApplyPathLoad")
	Entity string // "node", "edge" or "delay"
	ID     string // Entity identity, formatted
	Cause  error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s %s: %v", e.Op, e.Entity, e.ID, e.Cause)
	}
	if e.Entity != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// ErrorBuilder provides a fluent interface for building NetworkErrors.
type ErrorBuilder struct {
	err NetworkError
}

// NewError creates a new error builder with the given operation.
func NewError(op string) *ErrorBuilder {
	return &ErrorBuilder{err: NetworkError{Op: op}}
}

// Node sets the entity to "node" with the given ID.
func (b *ErrorBuilder) Node(id NodeID) *ErrorBuilder {
	b.err.Entity = "node"
	b.err.ID = fmt.Sprintf("%d", id)
	return b
}

// Edge sets the entity to "edge" with the given endpoints.
func (b *ErrorBuilder) Edge(u, v NodeID) *ErrorBuilder {
	b.err.Entity = "edge"
	b.err.ID = KeyOf(u, v).String()
	return b
}

// Delay sets the entity to "delay".
func (b *ErrorBuilder) Delay() *ErrorBuilder {
	b.err.Entity = "delay"
	return b
}

// Cause sets the underlying error cause.
func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Err returns the error as an error interface.
func (b *ErrorBuilder) Err() error {
	return &b.err
}

// IsNotFound reports whether err indicates a missing node or edge.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound) || errors.Is(err, ErrEdgeNotFound)
}
