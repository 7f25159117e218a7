package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Co11apsar/route/pkg/algorithms"
	"github.com/Co11apsar/route/pkg/engine"
	"github.com/Co11apsar/route/pkg/network"
	"github.com/Co11apsar/route/pkg/validation"
)

// Defaults of the load-balancing scenario
const (
	DefaultLoadBalanceNodes    = 8
	DefaultLoadBalanceRequests = 5000
	DefaultEvaporateEvery      = 10
	DefaultRho                 = 0.8
	DefaultDecayRate           = 0.3
)

// Role of a node in the load-balancing scenario
type Role string

const (
	RoleEntry Role = "entry"
	RoleExit  Role = "exit"
	RoleRelay Role = "relay"
)

// LoadBalanceScenario routes every request from Entry to Exit with the
// hybrid router. After each request pheromone evaporates when the request
// index is a multiple of EvaporateEvery, and every node except Entry and
// Exit sheds DecayRate load.
type LoadBalanceScenario struct {
	Entry          network.NodeID
	Exit           network.NodeID
	Requests       int
	EvaporateEvery int
	Rho            float64
	DecayRate      float64
	Progress       ProgressFunc
}

// DefaultLoadBalanceScenario routes from node 0 to node nodes-1
func DefaultLoadBalanceScenario(nodes int) LoadBalanceScenario {
	return LoadBalanceScenario{
		Entry:          0,
		Exit:           network.NodeID(nodes - 1),
		Requests:       DefaultLoadBalanceRequests,
		EvaporateEvery: DefaultEvaporateEvery,
		Rho:            DefaultRho,
		DecayRate:      DefaultDecayRate,
	}
}

// NodeReport is the final state of one node
type NodeReport struct {
	ID         network.NodeID `json:"id"`
	Role       Role           `json:"role"`
	Load       float64        `json:"load"`
	Selections uint64         `json:"selections"`
	Pheromone  float64        `json:"pheromone"`

	// MeanDelay is the mean delay to every other node; 0 for entry and exit
	MeanDelay float64 `json:"mean_delay"`
}

// LoadBalanceReport summarises a LoadBalanceScenario run
type LoadBalanceReport struct {
	Requests   int           `json:"requests"`
	Completed  int           `json:"completed"`
	Stalled    int           `json:"stalled"`
	Hops       int           `json:"hops"`
	AntHops    int           `json:"ant_hops"`
	TotalDelay float64       `json:"total_delay"`
	Duration   time.Duration `json:"duration"`
	Nodes      []NodeReport  `json:"nodes"`
}

// Validate checks the scenario before it runs
func (s LoadBalanceScenario) Validate() error {
	return validation.NewConfigValidator("load_balance").
		Positive("requests", s.Requests).
		Positive("evaporate_every", s.EvaporateEvery).
		OpenRangeFloat("rho", s.Rho, 0, 1).
		NonNegativeFloat("decay_rate", s.DecayRate).
		Validate()
}

// Run drives eng, whose network must carry a delay matrix. A stalled request
// is counted and the run goes on; any other failure stops it. Cancelling ctx
// stops the run and the report covers the requests completed so far.
func (s LoadBalanceScenario) Run(ctx context.Context, eng *engine.Engine) (LoadBalanceReport, error) {
	if err := s.Validate(); err != nil {
		return LoadBalanceReport{}, err
	}
	net, err := eng.Network()
	if err != nil {
		return LoadBalanceReport{}, err
	}
	for _, id := range []network.NodeID{s.Entry, s.Exit} {
		if !net.HasNode(id) {
			return LoadBalanceReport{}, network.NewError("LoadBalanceScenario").Node(id).Cause(network.ErrNodeNotFound).Err()
		}
	}
	if net.Delays() == nil {
		return LoadBalanceReport{}, fmt.Errorf("load balance scenario: %w", network.ErrNoDelays)
	}

	started := time.Now()
	var report LoadBalanceReport

	for i := 0; i < s.Requests; i++ {
		if err := ctx.Err(); err != nil {
			return s.finish(report, net, started), err
		}

		out, err := eng.Route(ctx, s.Entry, s.Exit)
		routed := err == nil
		report.Requests++
		switch {
		case errors.Is(err, algorithms.ErrRoutingStalled):
			report.Stalled++
		case err != nil:
			return s.finish(report, net, started), err
		default:
			report.Completed++
			report.Hops += len(out.Hops)
			report.AntHops += out.AntHops()
			report.TotalDelay += out.TotalDelay
		}

		if i%s.EvaporateEvery == 0 {
			if err := eng.Evaporate(s.Rho); err != nil {
				return s.finish(report, net, started), err
			}
		}
		if err := eng.DecayLoad(s.DecayRate, s.Entry, s.Exit); err != nil {
			return s.finish(report, net, started), err
		}

		s.Progress.report(Progress{Request: i + 1, Total: s.Requests, Path: out.Path, Value: out.TotalDelay, OK: routed})
	}
	return s.finish(report, net, started), nil
}

func (s LoadBalanceScenario) finish(report LoadBalanceReport, net *network.Network, started time.Time) LoadBalanceReport {
	report.Duration = time.Since(started)

	snap := net.Status()
	delays := net.Delays()
	for _, st := range snap.SortedNodes() {
		node := NodeReport{
			ID:         st.ID,
			Role:       RoleRelay,
			Load:       st.Load,
			Selections: st.Selections,
			Pheromone:  st.Pheromone,
		}
		switch st.ID {
		case s.Entry:
			node.Role = RoleEntry
		case s.Exit:
			node.Role = RoleExit
		default:
			node.MeanDelay = meanOutgoingDelay(delays, st.ID)
		}
		report.Nodes = append(report.Nodes, node)
	}
	return report
}

func meanOutgoingDelay(delays *network.DelayMatrix, id network.NodeID) float64 {
	if delays == nil {
		return 0
	}
	sum, n := 0.0, 0
	for _, other := range delays.IDs() {
		if other == id {
			continue
		}
		if d, ok := delays.Delay(id, other); ok {
			sum += d
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
