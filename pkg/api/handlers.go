package api

import (
	"context"
	"net/http"
	"time"

	"github.com/Co11apsar/route/pkg/algorithms"
	"github.com/Co11apsar/route/pkg/api/middleware"
	"github.com/Co11apsar/route/pkg/engine"
	"github.com/Co11apsar/route/pkg/network"
	"github.com/Co11apsar/route/pkg/validation"
)

// requestContext carries the middleware's request id into the engine
func requestContext(r *http.Request) context.Context {
	return engine.WithRequestID(r.Context(), middleware.GetRequestID(r))
}

func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).Post(func() {
		var req InitRequest
		decoder := s.NewRequestDecoder(w, r).DecodeOptionalJSON(&req)
		if req.Topology != nil {
			decoder.Validate(func() error { return s.opts.TopologyLimits.Check(req.Topology) })
			decoder.Validate(req.Topology.Validate)
		}
		if decoder.RespondError() {
			return
		}

		seed := clockSeed()
		if req.Seed != nil {
			seed = *req.Seed
		}

		var (
			info engine.Info
			err  error
		)
		if req.Topology != nil {
			info, err = s.engine.InitFromTopology(req.Topology, seed)
		} else {
			info, err = s.engine.InitRandom(seed)
		}
		if err != nil {
			// every topology problem is the caller's, including unknown edge endpoints
			if statusFor(err) != http.StatusInternalServerError {
				s.respondError(w, r, http.StatusBadRequest, err.Error())
				return
			}
			s.respondDomainError(w, r, err, "init")
			return
		}
		s.respondJSON(w, http.StatusOK, info)
	}).NotAllowed()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).Get(func() {
		s.respondStatus(w, r)
	}).NotAllowed()
}

func (s *Server) handleFindPath(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).Post(func() {
		var req validation.FindPathRequest
		if s.NewRequestDecoder(w, r).
			DecodeJSON(&req).
			Validate(func() error { return validation.ValidateFindPathRequest(&req) }).
			RespondError() {
			return
		}

		var weights *algorithms.Weights
		if req.Weights != nil {
			weights = &algorithms.Weights{
				Latency:  req.Weights.Latency,
				Load:     req.Weights.Load,
				Security: req.Weights.Security,
			}
		}

		out, err := s.engine.FindPath(requestContext(r), network.NodeID(*req.Start), network.NodeID(*req.End), weights)
		if err != nil {
			s.respondDomainError(w, r, err, "find_path")
			return
		}

		resp := newFindPathResponse(out)
		if req.Trace {
			resp.Trace = s.engine.LastTrace()
		}
		s.respondJSON(w, http.StatusOK, resp)
	}).NotAllowed()
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).Post(func() {
		var req validation.RouteRequest
		if s.NewRequestDecoder(w, r).
			DecodeJSON(&req).
			Validate(func() error { return validation.ValidateRouteRequest(&req) }).
			RespondError() {
			return
		}

		out, err := s.engine.Route(requestContext(r), network.NodeID(*req.Source), network.NodeID(*req.Destination))
		if err != nil {
			s.respondDomainError(w, r, err, "route")
			return
		}
		s.respondJSON(w, http.StatusOK, out)
	}).NotAllowed()
}

func (s *Server) handleEvaporate(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).Post(func() {
		var req validation.EvaporateRequest
		if s.NewRequestDecoder(w, r).
			DecodeJSON(&req).
			Validate(func() error { return validation.ValidateEvaporateRequest(&req) }).
			RespondError() {
			return
		}

		if err := s.engine.Evaporate(req.Rho); err != nil {
			s.respondDomainError(w, r, err, "evaporate")
			return
		}
		s.respondStatus(w, r)
	}).NotAllowed()
}

func (s *Server) handleDecay(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).Post(func() {
		var req validation.DecayRequest
		if s.NewRequestDecoder(w, r).
			DecodeJSON(&req).
			Validate(func() error { return validation.ValidateDecayRequest(&req) }).
			RespondError() {
			return
		}

		exclude := make([]network.NodeID, len(req.Exclude))
		for i, id := range req.Exclude {
			exclude[i] = network.NodeID(id)
		}
		if err := s.engine.DecayLoad(req.Amount, exclude...); err != nil {
			s.respondDomainError(w, r, err, "decay")
			return
		}
		s.respondStatus(w, r)
	}).NotAllowed()
}

func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).Get(func() {
		records := s.engine.LastTrace()
		if records == nil {
			records = []algorithms.PathRecord{}
		}
		s.respondJSON(w, http.StatusOK, TraceResponse{Count: len(records), Records: records})
	}).NotAllowed()
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).Get(func() {
		resp := InfoResponse{
			Version: s.opts.Version,
			Uptime:  time.Since(s.startTime).Round(time.Second).String(),
		}
		if info, err := s.engine.Info(); err == nil {
			resp.Network = &info
		}
		s.respondJSON(w, http.StatusOK, resp)
	}).NotAllowed()
}

// respondStatus answers a mutation with the resulting network snapshot
func (s *Server) respondStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.Status()
	if err != nil {
		s.respondDomainError(w, r, err, "status")
		return
	}
	s.respondJSON(w, http.StatusOK, snap)
}
