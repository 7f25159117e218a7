// Command route-sim runs the routing scenarios against an in-process engine
// and prints their results as tables. It can also record path searches to a
// trace file, print such a file, or watch a server's event stream.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.nanomsg.org/mangos/v3"

	"github.com/Co11apsar/route/pkg/config"
	"github.com/Co11apsar/route/pkg/engine"
	"github.com/Co11apsar/route/pkg/events"
	"github.com/Co11apsar/route/pkg/logging"
	"github.com/Co11apsar/route/pkg/report"
	"github.com/Co11apsar/route/pkg/trace"
)

const (
	scenarioPaths   = "paths"
	scenarioBalance = "balance"
	scenarioBoth    = "both"
)

type options struct {
	configPath string
	envFile    string
	scenario   string
	seed       uint64
	requests   int
	nodes      int
	traceOut   string
	showTrace  string
	publish    string
	watch      string
	verbose    bool
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "YAML config file")
	flag.StringVar(&o.envFile, "env", ".env", "env file loaded before environment overrides")
	flag.StringVar(&o.scenario, "scenario", scenarioBoth, "paths, balance or both")
	flag.Uint64Var(&o.seed, "seed", 0, "random seed (0 uses the config seed, or the clock)")
	flag.IntVar(&o.requests, "requests", 0, "requests per scenario (0 uses the config)")
	flag.IntVar(&o.nodes, "nodes", 0, "node count of the load-balancing network (0 uses the config)")
	flag.StringVar(&o.traceOut, "trace-out", "", "write path search records to this file")
	flag.StringVar(&o.showTrace, "show-trace", "", "print a trace file and exit")
	flag.StringVar(&o.publish, "events", "", "publish events on this address, e.g. tcp://127.0.0.1:7700")
	flag.StringVar(&o.watch, "watch", "", "print events from this address until interrupted")
	flag.BoolVar(&o.verbose, "v", false, "log every request")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch {
	case o.showTrace != "":
		err = showTrace(os.Stdout, o.showTrace)
	case o.watch != "":
		err = watch(ctx, os.Stdout, o.watch)
	default:
		err = simulate(ctx, os.Stdout, o)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "route-sim: %v\n", err)
		os.Exit(1)
	}
}

func showTrace(w io.Writer, path string) error {
	entries, err := trace.ReadFile(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s: %d entries\n", path, len(entries))
	fmt.Fprintln(w, report.Trace(entries))
	return nil
}

func watch(ctx context.Context, w io.Writer, addr string) error {
	sub, err := events.Dial(addr)
	if err != nil {
		return err
	}
	defer sub.Close()

	fmt.Fprintf(w, "watching %s\n", addr)
	for ctx.Err() == nil {
		ev, err := sub.Receive(500 * time.Millisecond)
		if errors.Is(err, mangos.ErrRecvTimeout) {
			continue
		}
		if errors.Is(err, events.ErrMalformedMessage) {
			fmt.Fprintf(w, "skipping malformed event: %v\n", err)
			continue
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s %-22s %s %s\n", ev.Time.Format(time.TimeOnly), ev.Type, ev.RequestID, ev.Payload)
	}
	return nil
}

func simulate(ctx context.Context, w io.Writer, o options) error {
	switch o.scenario {
	case scenarioPaths, scenarioBalance, scenarioBoth:
	default:
		return fmt.Errorf("unknown scenario %q", o.scenario)
	}

	cfg, err := config.Load(o.configPath, o.envFile)
	if err != nil {
		return err
	}

	seed := o.seed
	if seed == 0 {
		seed = cfg.Topology.Seed
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	var logger logging.Logger = logging.NewNopLogger()
	if o.verbose {
		logger = logging.NewJSONLogger(os.Stderr, logging.DebugLevel)
	}

	engOpts := cfg.EngineOptions()
	engOpts.Logger = logger

	if o.publish != "" {
		pub, err := events.Listen(o.publish)
		if err != nil {
			return err
		}
		defer pub.Close()
		engOpts.Publisher = pub
	}

	if o.traceOut != "" {
		tw, err := trace.Create(o.traceOut)
		if err != nil {
			return err
		}
		defer func() {
			stats := tw.Stats()
			if err := tw.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "route-sim: closing trace: %v\n", err)
				return
			}
			fmt.Fprintf(w, "trace: %d entries written to %s (compression %.2f)\n", stats.Entries, o.traceOut, stats.CompressionRatio())
		}()
		engOpts.Trace = tw
	}

	eng, err := engine.New(engOpts)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "seed %d\n\n", seed)

	if o.scenario == scenarioPaths || o.scenario == scenarioBoth {
		if err := runPaths(ctx, w, eng, cfg, o, seed); err != nil {
			return err
		}
	}
	if o.scenario == scenarioBalance || o.scenario == scenarioBoth {
		if err := runBalance(ctx, w, eng, cfg, o, seed); err != nil {
			return err
		}
	}
	return nil
}

func runPaths(ctx context.Context, w io.Writer, eng *engine.Engine, cfg *config.Config, o options, seed uint64) error {
	if _, err := eng.InitRandom(seed); err != nil {
		return err
	}

	scenario := cfg.PathScenario()
	scenario.Rand = engine.NewRand(seed + 1)
	if o.requests > 0 {
		scenario.Requests = o.requests
	}

	r, err := scenario.Run(ctx, eng)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, report.Paths(r))
	return nil
}

func runBalance(ctx context.Context, w io.Writer, eng *engine.Engine, cfg *config.Config, o options, seed uint64) error {
	if o.nodes > 0 {
		cfg.Simulation.Nodes = o.nodes
	}
	if _, err := eng.InitLoadBalance(seed, cfg.Simulation.Nodes, cfg.Simulation.MinDelay, cfg.Simulation.MaxDelay); err != nil {
		return err
	}

	scenario := cfg.LoadBalanceScenario()
	if o.requests > 0 {
		scenario.Requests = o.requests
	}

	r, err := scenario.Run(ctx, eng)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, report.LoadBalance(r))
	return nil
}
