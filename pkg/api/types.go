package api

import (
	"time"

	"github.com/Co11apsar/route/pkg/algorithms"
	"github.com/Co11apsar/route/pkg/engine"
	"github.com/Co11apsar/route/pkg/network"
	"github.com/Co11apsar/route/pkg/topology"
)

// API Request/Response Types

// InitRequest (re)builds the network: from Topology when given, otherwise a
// random secure network. A missing seed is drawn from the clock.
type InitRequest struct {
	Seed     *uint64        `json:"seed,omitempty"`
	Topology *topology.Spec `json:"topology,omitempty"`
}

// FindPathResponse is the result of a weighted path query. Cost is null
// when no path exists.
type FindPathResponse struct {
	Path      []network.NodeID        `json:"path"`
	Cost      *float64                `json:"cost"`
	Found     bool                    `json:"found"`
	RequestID string                  `json:"request_id"`
	Trace     []algorithms.PathRecord `json:"trace,omitempty"`
}

// TraceResponse holds the search records of the most recent path query
type TraceResponse struct {
	Count   int                     `json:"count"`
	Records []algorithms.PathRecord `json:"records"`
}

// InfoResponse describes the server and the current network, if any
type InfoResponse struct {
	Version string       `json:"version"`
	Uptime  string       `json:"uptime"`
	Network *engine.Info `json:"network,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Code      int    `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

func newFindPathResponse(out engine.PathOutcome) FindPathResponse {
	resp := FindPathResponse{
		Path:      out.Path,
		Found:     out.Found,
		RequestID: out.RequestID,
	}
	if resp.Path == nil {
		resp.Path = []network.NodeID{}
	}
	if out.Found {
		cost := out.Cost
		resp.Cost = &cost
	}
	return resp
}

func clockSeed() uint64 {
	return uint64(time.Now().UnixNano())
}
