// Command route-server serves the routing engine over HTTP: JSON endpoints,
// GraphQL, health probes and Prometheus metrics.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Co11apsar/route/pkg/api"
	"github.com/Co11apsar/route/pkg/api/middleware"
	"github.com/Co11apsar/route/pkg/config"
	"github.com/Co11apsar/route/pkg/engine"
	"github.com/Co11apsar/route/pkg/events"
	"github.com/Co11apsar/route/pkg/logging"
	"github.com/Co11apsar/route/pkg/metrics"
	"github.com/Co11apsar/route/pkg/server"
	"github.com/Co11apsar/route/pkg/topology"
	"github.com/Co11apsar/route/pkg/trace"
)

var version = "dev"

type flags struct {
	configPath string
	envFile    string
	port       int
	seed       uint64
	topology   string
	logLevel   string
}

func parseFlags() (flags, map[string]bool) {
	var f flags
	flag.StringVar(&f.configPath, "config", "", "YAML config file")
	flag.StringVar(&f.envFile, "env", ".env", "env file loaded before environment overrides")
	flag.IntVar(&f.port, "port", 0, "HTTP port (overrides config)")
	flag.Uint64Var(&f.seed, "seed", 0, "random seed for the startup network (overrides config)")
	flag.StringVar(&f.topology, "topology", "", "YAML topology file (overrides config)")
	flag.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error (overrides config)")
	flag.Parse()

	set := make(map[string]bool)
	flag.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return f, set
}

// loadConfig reads the config and applies explicitly set flags on top
func loadConfig(f flags, set map[string]bool) (*config.Config, error) {
	cfg, err := config.Load(f.configPath, f.envFile)
	if err != nil {
		return nil, err
	}
	if set["port"] {
		cfg.Server.Port = f.port
	}
	if set["seed"] {
		cfg.Topology.Seed = f.seed
	}
	if set["topology"] {
		cfg.Topology.File = f.topology
	}
	if set["log-level"] {
		cfg.Log.Level = f.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	f, set := parseFlags()
	cfg, err := loadConfig(f, set)
	if err != nil {
		fmt.Fprintf(os.Stderr, "route-server: %v\n", err)
		os.Exit(2)
	}

	logger := logging.NewJSONLogger(os.Stdout, cfg.LogLevel())
	logging.SetDefaultLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, f, set, logger); err != nil {
		logger.Error("server exited with error", logging.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, f flags, set map[string]bool, logger *logging.JSONLogger) error {
	reg := metrics.NewRegistry()

	engOpts := cfg.EngineOptions()
	engOpts.Logger = logger
	engOpts.Metrics = reg

	if cfg.Events.Addr != "" {
		pub, err := events.Listen(cfg.Events.Addr)
		if err != nil {
			return err
		}
		defer pub.Close()
		engOpts.Publisher = pub
		logger.Info("publishing events", logging.String("addr", pub.Addr()))
	}

	if cfg.Trace.File != "" {
		tw, err := trace.Create(cfg.Trace.File)
		if err != nil {
			return err
		}
		defer func() {
			stats := tw.Stats()
			if err := tw.Close(); err != nil {
				logger.Warn("failed to close trace file", logging.Error(err))
			}
			logger.Info("trace file closed",
				logging.String("path", cfg.Trace.File),
				logging.Uint64("entries", stats.Entries),
				logging.Float64("compression_ratio", stats.CompressionRatio()))
		}()
		engOpts.Trace = tw
	}

	eng, err := engine.New(engOpts)
	if err != nil {
		return err
	}
	info, err := initNetwork(eng, cfg)
	if err != nil {
		return err
	}
	logger.Info("network initialized",
		logging.String("source", string(info.Source)),
		logging.Seed(info.Seed),
		logging.Int("nodes", info.Nodes),
		logging.Int("edges", info.Edges))

	apiServer, err := api.NewServer(apiOptions(cfg, eng, reg, logger))
	if err != nil {
		return err
	}
	defer apiServer.Close()

	gs := server.NewGracefulServer(cfg.Addr(), apiServer.Handler(), server.Options{
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Logger:          logger,
	})

	// Only the log level is applied live; other settings need a restart
	gs.SetConfigReloadFunc(func() error {
		next, err := loadConfig(f, set)
		if err != nil {
			return err
		}
		logger.SetLevel(next.LogLevel())
		logger.Info("log level reloaded", logging.String("level", next.LogLevel().String()))
		return nil
	})

	return gs.Run(ctx)
}

func initNetwork(eng *engine.Engine, cfg *config.Config) (engine.Info, error) {
	seed := cfg.Topology.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	if cfg.Topology.File == "" {
		return eng.InitRandom(seed)
	}
	spec, err := topology.Load(cfg.Topology.File)
	if err != nil {
		return engine.Info{}, err
	}
	return eng.InitFromTopology(spec, seed)
}

func apiOptions(cfg *config.Config, eng *engine.Engine, reg *metrics.Registry, logger logging.Logger) api.Options {
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.Server.CORSOrigins

	opts := api.Options{
		Engine:          eng,
		Metrics:         reg,
		Logger:          logger,
		Version:         version,
		MaxBodyBytes:    cfg.Server.MaxBodyBytes,
		CORS:            cors,
		GraphQLMaxDepth: cfg.Server.GraphQLMaxDepth,
		TopologyLimits:  cfg.Topology.Limits,
	}
	if cfg.RateLimit.Enabled {
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.BurstSize = cfg.RateLimit.Burst
		opts.RateLimit = rl
		// validated with the config
		opts.TrustedProxies, _ = cfg.TrustedProxies()
	}
	return opts
}
