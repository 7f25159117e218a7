package engine

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/Co11apsar/route/pkg/algorithms"
	"github.com/Co11apsar/route/pkg/events"
	"github.com/Co11apsar/route/pkg/logging"
	"github.com/Co11apsar/route/pkg/metrics"
	"github.com/Co11apsar/route/pkg/network"
	"github.com/Co11apsar/route/pkg/trace"
)

// PathOutcome is the result of one FindPath request. Cost is +Inf when no
// path exists.
type PathOutcome struct {
	RequestID string
	Start     network.NodeID
	End       network.NodeID
	Path      []network.NodeID
	Cost      float64
	Found     bool
	Weights   algorithms.Weights
	Duration  time.Duration
}

// RouteOutcome is the result of one hybrid routing request
type RouteOutcome struct {
	RequestID string `json:"request_id"`
	algorithms.RouteResult
	Duration time.Duration `json:"-"`
}

// AntHops counts the hops where the pheromone choice overrode the shortest-delay hop
func (o RouteOutcome) AntHops() int {
	n := 0
	for _, hop := range o.Hops {
		if hop.AntAccepted {
			n++
		}
	}
	return n
}

// routeEvent is the payload published for routing requests
type routeEvent struct {
	Source      network.NodeID           `json:"source"`
	Destination network.NodeID           `json:"destination"`
	Path        []network.NodeID         `json:"path,omitempty"`
	TotalDelay  float64                  `json:"total_delay"`
	Hops        []algorithms.HopDecision `json:"hops,omitempty"`
	Error       string                   `json:"error,omitempty"`
}

func (e *Engine) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.opts.SearchTimeout > 0 {
		return context.WithTimeout(ctx, e.opts.SearchTimeout)
	}
	return context.WithCancel(ctx)
}

// FindPath selects a least-cost path from start to end and applies its load.
// A nil w uses the engine's default weights. Not finding a path is not an
// error: the outcome has Found false and an infinite cost.
func (e *Engine) FindPath(ctx context.Context, start, end network.NodeID, w *algorithms.Weights) (PathOutcome, error) {
	s, err := e.session()
	if err != nil {
		return PathOutcome{}, err
	}

	id := requestID(ctx)
	ctx = WithRequestID(ctx, id)
	ctx, cancel := e.withDeadline(ctx)
	defer cancel()

	weights := e.opts.Weights
	if w != nil {
		weights = *w
	}

	log := e.logger.With(logging.RequestID(id), logging.Operation("find_path"))
	timer := logging.StartTimer(log, "path search", logging.Source(start), logging.Destination(end))

	var records algorithms.RecordLog
	res, err := algorithms.FindPath(ctx, s.net, start, end, weights, algorithms.SearchOptions{
		Recorder: records.Record,
		MaxPops:  e.opts.MaxPops,
	})
	elapsed := timer.Elapsed()
	if err != nil {
		timer.EndError(err)
		if e.metrics != nil {
			e.metrics.RecordPathRequest(metrics.StatusError, 0, 0, elapsed)
		}
		return PathOutcome{}, err
	}

	outcome := PathOutcome{
		RequestID: id,
		Start:     start,
		End:       end,
		Path:      res.Path,
		Cost:      res.Cost,
		Found:     res.Found,
		Weights:   weights,
		Duration:  elapsed,
	}

	e.mu.Lock()
	if e.current == s {
		e.lastTrace = records.Records
	}
	e.mu.Unlock()

	summary := trace.SummaryOf(start, end, res)
	if e.opts.Trace != nil {
		if err := e.opts.Trace.WriteSearch(id, records.Records, summary); err != nil {
			log.Warn("failed to write search trace", logging.Error(err))
		}
	}

	status, typ := metrics.StatusFound, events.PathFound
	if !res.Found {
		status, typ = metrics.StatusNotFound, events.PathNotFound
	}
	if e.metrics != nil {
		e.metrics.RecordPathRequest(status, res.Cost, len(res.Path)-1, elapsed)
	}
	e.refreshMetrics(s.net)
	e.publish(ctx, typ, summary)

	timer.End(logging.Bool("found", res.Found), logging.Path(res.Path), logging.Cost(res.Cost))
	return outcome, nil
}

// Route runs one hybrid routing request from src to dst. A stalled request
// leaves the network untouched and returns algorithms.ErrRoutingStalled.
func (e *Engine) Route(ctx context.Context, src, dst network.NodeID) (RouteOutcome, error) {
	s, err := e.session()
	if err != nil {
		return RouteOutcome{}, err
	}

	id := requestID(ctx)
	ctx = WithRequestID(ctx, id)
	ctx, cancel := e.withDeadline(ctx)
	defer cancel()

	log := e.logger.With(logging.RequestID(id), logging.Operation("route"))
	timer := logging.StartTimer(log, "hybrid route", logging.Source(src), logging.Destination(dst))

	res, err := s.router.Route(ctx, s.net, src, dst)
	elapsed := timer.Elapsed()
	if err != nil {
		status := metrics.StatusError
		if errors.Is(err, algorithms.ErrRoutingStalled) {
			status = metrics.StatusStalled
			e.publish(ctx, events.RouteStalled, routeEvent{Source: src, Destination: dst, Error: err.Error()})
		}
		if e.metrics != nil {
			e.metrics.RecordRoute(status, 0, 0, 0, elapsed)
		}
		timer.EndError(err)
		return RouteOutcome{}, err
	}

	outcome := RouteOutcome{RequestID: id, RouteResult: res, Duration: elapsed}
	if e.metrics != nil {
		e.metrics.RecordRoute(metrics.StatusOK, res.TotalDelay, len(res.Hops), outcome.AntHops(), elapsed)
	}
	e.refreshMetrics(s.net)
	e.publish(ctx, events.RouteCompleted, routeEvent{
		Source:      src,
		Destination: dst,
		Path:        res.Path,
		TotalDelay:  res.TotalDelay,
		Hops:        res.Hops,
	})

	timer.EndDebug(logging.Path(res.Path), logging.Float64("total_delay", res.TotalDelay), logging.Hops(len(res.Hops)))
	return outcome, nil
}

// Evaporate multiplies every node's pheromone by rho, floored at the pheromone floor
func (e *Engine) Evaporate(rho float64) error {
	s, err := e.session()
	if err != nil {
		return err
	}
	err = s.net.Update(func(tx *network.Tx) error {
		return s.router.Engine.Evaporate(tx, rho)
	})
	if err != nil {
		return err
	}

	if e.metrics != nil {
		e.metrics.RecordEvaporation()
	}
	e.refreshMetrics(s.net)
	e.publish(context.Background(), events.PheromoneEvaporated, map[string]float64{"rho": rho})
	e.logger.Debug("pheromone evaporated", logging.Float64("rho", rho))
	return nil
}

// DecayLoad lowers every node's load by amount, floored at zero, except the excluded nodes
func (e *Engine) DecayLoad(amount float64, exclude ...network.NodeID) error {
	s, err := e.session()
	if err != nil {
		return err
	}
	for _, id := range exclude {
		if !s.net.HasNode(id) {
			return network.NewError("DecayLoad").Node(id).Cause(network.ErrNodeNotFound).Err()
		}
	}
	err = s.net.Update(func(tx *network.Tx) error {
		return tx.DecayLoad(amount, exclude...)
	})
	if err != nil {
		return err
	}

	if e.metrics != nil {
		e.metrics.RecordDecay()
	}
	e.refreshMetrics(s.net)
	e.publish(context.Background(), events.LoadDecayed, map[string]any{"amount": amount, "exclude": exclude})
	e.logger.Debug("load decayed", logging.Float64("amount", amount), logging.Count(len(exclude)))
	return nil
}

// Status returns a snapshot of every node and edge
func (e *Engine) Status() (network.Snapshot, error) {
	s, err := e.session()
	if err != nil {
		return network.Snapshot{}, err
	}
	return s.net.Status(), nil
}

// Statistics returns the transaction counters of the current network
func (e *Engine) Statistics() (network.Statistics, error) {
	s, err := e.session()
	if err != nil {
		return network.Statistics{}, err
	}
	return s.net.Statistics(), nil
}

// LastTrace returns the search records of the most recent FindPath on the
// current network
func (e *Engine) LastTrace() []algorithms.PathRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.lastTrace)
}
