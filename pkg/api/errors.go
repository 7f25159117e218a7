package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/Co11apsar/route/pkg/algorithms"
	"github.com/Co11apsar/route/pkg/engine"
	"github.com/Co11apsar/route/pkg/network"
	"github.com/Co11apsar/route/pkg/topology"
)

// badRequest lists the errors caused by the request itself
var badRequest = []error{
	engine.ErrNotInitialized,
	algorithms.ErrNegativeWeight,
	algorithms.ErrInvalidAntParams,
	network.ErrInvalidRho,
	network.ErrInvalidAmount,
	network.ErrDuplicateNode,
	network.ErrInvalidCapacity,
	network.ErrInvalidSecurity,
	network.ErrSelfLoop,
	network.ErrDuplicateEdge,
	network.ErrInvalidLatency,
	network.ErrInvalidBandwidth,
	network.ErrInvalidDelayMatrix,
	topology.ErrInvalidSpec,
	topology.ErrTooManyEdges,
	topology.ErrIncompleteDelays,
	topology.ErrTooLarge,
}

// statusFor maps a domain error to the HTTP status it is reported with
func statusFor(err error) int {
	switch {
	case errors.Is(err, network.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, algorithms.ErrRoutingStalled), errors.Is(err, network.ErrNoDelays):
		return http.StatusConflict
	case errors.Is(err, algorithms.ErrSearchTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	for _, target := range badRequest {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}
