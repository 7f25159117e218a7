package simulation

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/Co11apsar/route/pkg/algorithms"
	"github.com/Co11apsar/route/pkg/engine"
	"github.com/Co11apsar/route/pkg/network"
	"github.com/Co11apsar/route/pkg/validation"
)

// DefaultPathRequests is the number of requests PathScenario issues by default
const DefaultPathRequests = 100

// PathScenario issues FindPath requests between random distinct node pairs
type PathScenario struct {
	Requests int
	Weights  *algorithms.Weights

	// Rand picks the pairs
	Rand     *rand.Rand
	Progress ProgressFunc
}

// PathReport summarises a PathScenario run
type PathReport struct {
	Requests  int              `json:"requests"`
	Found     int              `json:"found"`
	NotFound  int              `json:"not_found"`
	TotalCost float64          `json:"total_cost"`
	MeanCost  float64          `json:"mean_cost"`
	Duration  time.Duration    `json:"duration"`
	Snapshot  network.Snapshot `json:"snapshot"`
}

// Validate checks the scenario before it runs
func (s PathScenario) Validate() error {
	return validation.NewConfigValidator("path_scenario").
		Positive("requests", validation.DefaultOr(s.Requests, DefaultPathRequests)).
		Custom("rand", func() error {
			if s.Rand == nil {
				return fmt.Errorf("a random source is required")
			}
			return nil
		}).
		When(s.Weights != nil, func(cv *validation.ConfigValidator) {
			cv.Custom("weights", s.Weights.Validate)
		}).
		Validate()
}

// Run issues the requests against eng. Cancelling ctx stops the run; the
// report then covers the requests completed so far.
func (s PathScenario) Run(ctx context.Context, eng *engine.Engine) (PathReport, error) {
	if err := s.Validate(); err != nil {
		return PathReport{}, err
	}
	net, err := eng.Network()
	if err != nil {
		return PathReport{}, err
	}
	ids := net.NodeIDs()
	if len(ids) < 2 {
		return PathReport{}, fmt.Errorf("path scenario needs at least 2 nodes, network has %d", len(ids))
	}

	total := validation.DefaultOr(s.Requests, DefaultPathRequests)
	started := time.Now()
	var report PathReport

	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return s.finish(report, eng, started), err
		}

		perm := s.Rand.Perm(len(ids))
		start, end := ids[perm[0]], ids[perm[1]]

		out, err := eng.FindPath(ctx, start, end, s.Weights)
		if err != nil {
			return s.finish(report, eng, started), err
		}

		report.Requests++
		if out.Found {
			report.Found++
			report.TotalCost += out.Cost
		} else {
			report.NotFound++
		}
		s.Progress.report(Progress{Request: i + 1, Total: total, Path: out.Path, Value: out.Cost, OK: out.Found})
	}
	return s.finish(report, eng, started), nil
}

func (s PathScenario) finish(report PathReport, eng *engine.Engine, started time.Time) PathReport {
	if report.Found > 0 {
		report.MeanCost = report.TotalCost / float64(report.Found)
	}
	report.Duration = time.Since(started)
	report.Snapshot, _ = eng.Status()
	return report
}
