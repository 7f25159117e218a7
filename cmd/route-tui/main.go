// Command route-tui is an interactive dashboard for the hybrid
// load-balancing scenario: it runs the scenario in the background and shows
// live node load, pheromone and the engine's event stream.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Co11apsar/route/pkg/config"
	"github.com/Co11apsar/route/pkg/engine"
	"github.com/Co11apsar/route/pkg/events"
	"github.com/Co11apsar/route/pkg/logging"
	"github.com/Co11apsar/route/pkg/network"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	envFile := flag.String("env", ".env", "env file loaded before environment overrides")
	seed := flag.Uint64("seed", 0, "random seed (0 uses the config seed, or the clock)")
	nodes := flag.Int("nodes", 0, "node count (0 uses the config)")
	requests := flag.Int("requests", 0, "requests per run (0 uses the config)")
	logFile := flag.String("log", "", "write JSON logs to this file")
	flag.Parse()

	if err := run(*configPath, *envFile, *seed, *nodes, *requests, *logFile); err != nil {
		fmt.Fprintf(os.Stderr, "route-tui: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, envFile string, seed uint64, nodes, requests int, logFile string) error {
	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return err
	}

	// stdout belongs to the terminal UI
	var logger logging.Logger = logging.NewNopLogger()
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		logger = logging.NewJSONLogger(f, cfg.LogLevel())
	}

	if seed == 0 {
		seed = cfg.Topology.Seed
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	settings := runSettings{
		nodes:    cfg.Simulation.Nodes,
		minDelay: cfg.Simulation.MinDelay,
		maxDelay: cfg.Simulation.MaxDelay,
		scenario: cfg.LoadBalanceScenario(),
	}
	if nodes > 0 {
		settings.nodes = nodes
		settings.scenario.Exit = network.NodeID(nodes - 1)
	}
	if requests > 0 {
		settings.scenario.Requests = requests
	}

	bus := events.NewBus(cfg.Events.Buffer)
	defer bus.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := bus.Subscribe(ctx, "")

	opts := cfg.EngineOptions()
	opts.Logger = logger.With(logging.Component("tui"))
	opts.Publisher = bus
	eng, err := engine.New(opts)
	if err != nil {
		return err
	}

	p := tea.NewProgram(initialModel(eng, sub, settings, seed), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
