// Package config loads the settings shared by the route binaries: a YAML
// file, then a .env file, then environment overrides, validated as a whole.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Co11apsar/route/pkg/algorithms"
	"github.com/Co11apsar/route/pkg/api/middleware"
	"github.com/Co11apsar/route/pkg/engine"
	"github.com/Co11apsar/route/pkg/logging"
	"github.com/Co11apsar/route/pkg/simulation"
	"github.com/Co11apsar/route/pkg/topology"
	"github.com/Co11apsar/route/pkg/validation"
)

// Environment variables that override the file
const (
	EnvPort       = "ROUTE_PORT"
	EnvLogLevel   = "LOG_LEVEL"
	EnvSeed       = "ROUTE_SEED"
	EnvTopology   = "ROUTE_TOPOLOGY"
	EnvEventsAddr = "ROUTE_EVENTS_ADDR"
	EnvTraceFile  = "ROUTE_TRACE_FILE"
)

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	GraphQLMaxDepth int           `yaml:"graphql_max_depth"`
}

// LogConfig selects the minimum log level
type LogConfig struct {
	Level string `yaml:"level"`
}

// TopologyConfig chooses the network built at startup: File when set,
// otherwise a random secure network from Random.
type TopologyConfig struct {
	File   string                `yaml:"file"`
	Seed   uint64                `yaml:"seed"`
	Random topology.RandomConfig `yaml:"random"`

	// Limits bounds topologies posted to the HTTP API
	Limits topology.Limits `yaml:"limits"`
}

// RoutingConfig holds the engine defaults for path search and hybrid routing
type RoutingConfig struct {
	Weights       algorithms.Weights `yaml:"weights"`
	DepositQ      float64            `yaml:"deposit_q"`
	MaxHops       int                `yaml:"max_hops"`
	MaxPops       int                `yaml:"max_pops"`
	SearchTimeout time.Duration      `yaml:"search_timeout"`
}

// SimulationConfig parameterises the scenarios run by route-sim and route-tui
type SimulationConfig struct {
	PathRequests   int     `yaml:"path_requests"`
	Nodes          int     `yaml:"nodes"`
	Requests       int     `yaml:"requests"`
	EvaporateEvery int     `yaml:"evaporate_every"`
	Rho            float64 `yaml:"rho"`
	DecayRate      float64 `yaml:"decay_rate"`
	MinDelay       int     `yaml:"min_delay"`
	MaxDelay       int     `yaml:"max_delay"`
}

// EventsConfig enables the pub/sub event stream when Addr is set
type EventsConfig struct {
	Addr   string `yaml:"addr"`
	Buffer int    `yaml:"buffer"`
}

// RateLimitConfig configures the per-client token bucket of the HTTP API
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`

	// TrustedProxies lists CIDRs or IPs whose X-Forwarded-For is believed
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// TraceConfig names the file that receives FindPath search records
type TraceConfig struct {
	File string `yaml:"file"`
}

// Config is the complete configuration
type Config struct {
	Server     ServerConfig         `yaml:"server"`
	Log        LogConfig            `yaml:"log"`
	Topology   TopologyConfig       `yaml:"topology"`
	Routing    RoutingConfig        `yaml:"routing"`
	Ant        algorithms.AntParams `yaml:"ant"`
	Simulation SimulationConfig     `yaml:"simulation"`
	Events     EventsConfig         `yaml:"events"`
	RateLimit  RateLimitConfig      `yaml:"rate_limit"`
	Trace      TraceConfig          `yaml:"trace"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBodyBytes:    1 << 20,
			GraphQLMaxDepth: 4,
		},
		Log: LogConfig{Level: "info"},
		Topology: TopologyConfig{
			Random: topology.DefaultRandomConfig(),
			Limits: topology.DefaultLimits(),
		},
		Routing: RoutingConfig{
			Weights:       algorithms.DefaultWeights(),
			DepositQ:      algorithms.DefaultDepositQ,
			SearchTimeout: 5 * time.Second,
		},
		Ant: algorithms.DefaultAntParams(),
		Simulation: SimulationConfig{
			PathRequests:   simulation.DefaultPathRequests,
			Nodes:          simulation.DefaultLoadBalanceNodes,
			Requests:       simulation.DefaultLoadBalanceRequests,
			EvaporateEvery: simulation.DefaultEvaporateEvery,
			Rho:            simulation.DefaultRho,
			DecayRate:      simulation.DefaultDecayRate,
			MinDelay:       50,
			MaxDelay:       200,
		},
		Events: EventsConfig{Buffer: 256},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
		},
	}
}

// Load reads path (optional), then envFile (optional, missing is fine),
// applies environment overrides and validates the result
func Load(path, envFile string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result; unknown
// keys are rejected
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides fields from the environment as seen through lookup
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		c.Server.Port = port
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v, ok := lookup(EnvSeed); ok && v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSeed, err)
		}
		c.Topology.Seed = seed
	}
	if v, ok := lookup(EnvTopology); ok {
		c.Topology.File = v
	}
	if v, ok := lookup(EnvEventsAddr); ok {
		c.Events.Addr = v
	}
	if v, ok := lookup(EnvTraceFile); ok {
		c.Trace.File = v
	}
	return nil
}

// Validate checks every section and reports all problems at once
func (c *Config) Validate() error {
	return errors.Join(
		validation.NewConfigValidator("server").
			RangeInt("port", c.Server.Port, 0, 65535).
			MinDuration("read_timeout", c.Server.ReadTimeout, 0).
			MinDuration("write_timeout", c.Server.WriteTimeout, 0).
			MinDuration("shutdown_timeout", c.Server.ShutdownTimeout, time.Second).
			Custom("max_body_bytes", func() error {
				if c.Server.MaxBodyBytes <= 0 {
					return fmt.Errorf("value %d must be positive", c.Server.MaxBodyBytes)
				}
				return nil
			}).
			Positive("graphql_max_depth", c.Server.GraphQLMaxDepth).
			Validate(),
		validation.NewConfigValidator("log").
			OneOf("level", strings.ToLower(c.Log.Level), []string{"debug", "info", "warn", "warning", "error"}).
			Validate(),
		validation.NewConfigValidator("topology").
			When(c.Topology.File == "", func(cv *validation.ConfigValidator) {
				cv.Custom("random", func() error { return validation.Struct(&c.Topology.Random) })
			}).
			RangeInt("limits.max_nodes", c.Topology.Limits.MaxNodes, 1, topology.MaxNodes).
			RangeInt("limits.max_edges", c.Topology.Limits.MaxEdges, 0, topology.MaxEdges).
			Validate(),
		validation.NewConfigValidator("routing").
			Custom("weights", c.Routing.Weights.Validate).
			NonNegativeFloat("deposit_q", c.Routing.DepositQ).
			RangeInt("max_hops", c.Routing.MaxHops, 0, 1<<20).
			RangeInt("max_pops", c.Routing.MaxPops, 0, 1<<30).
			MinDuration("search_timeout", c.Routing.SearchTimeout, 0).
			Validate(),
		validation.NewConfigValidator("ant").
			Custom("params", c.Ant.Validate).
			Validate(),
		validation.NewConfigValidator("simulation").
			Positive("path_requests", c.Simulation.PathRequests).
			RangeInt("nodes", c.Simulation.Nodes, 2, 10000).
			Positive("requests", c.Simulation.Requests).
			Positive("evaporate_every", c.Simulation.EvaporateEvery).
			OpenRangeFloat("rho", c.Simulation.Rho, 0, 1).
			NonNegativeFloat("decay_rate", c.Simulation.DecayRate).
			RangeInt("min_delay", c.Simulation.MinDelay, 1, c.Simulation.MaxDelay).
			Validate(),
		validation.NewConfigValidator("events").
			When(c.Events.Addr != "", func(cv *validation.ConfigValidator) {
				cv.Positive("buffer", c.Events.Buffer)
			}).
			Validate(),
		validation.NewConfigValidator("rate_limit").
			When(c.RateLimit.Enabled, func(cv *validation.ConfigValidator) {
				cv.PositiveFloat("requests_per_second", c.RateLimit.RequestsPerSecond).
					Positive("burst", c.RateLimit.Burst).
					Custom("trusted_proxies", func() error {
						_, err := c.TrustedProxies()
						return err
					})
			}).
			Validate(),
	)
}

// TrustedProxies parses the rate limiter's trusted proxy list
func (c *Config) TrustedProxies() ([]*net.IPNet, error) {
	return middleware.ParseTrustedProxies(strings.Join(c.RateLimit.TrustedProxies, ","))
}

// LogLevel returns the configured level
func (c *Config) LogLevel() logging.Level {
	return logging.ParseLevel(c.Log.Level)
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// EngineOptions returns engine options carrying the routing, ant and
// random topology settings; logger, metrics, publisher and trace are left
// for the caller to attach
func (c *Config) EngineOptions() engine.Options {
	opts := engine.DefaultOptions()
	opts.Weights = c.Routing.Weights
	opts.Ant = c.Ant
	opts.DepositQ = c.Routing.DepositQ
	opts.MaxHops = c.Routing.MaxHops
	opts.MaxPops = c.Routing.MaxPops
	opts.SearchTimeout = c.Routing.SearchTimeout
	opts.Random = c.Topology.Random
	return opts
}

// LoadBalanceScenario returns the hybrid scenario described by the
// simulation section
func (c *Config) LoadBalanceScenario() simulation.LoadBalanceScenario {
	s := simulation.DefaultLoadBalanceScenario(c.Simulation.Nodes)
	s.Requests = c.Simulation.Requests
	s.EvaporateEvery = c.Simulation.EvaporateEvery
	s.Rho = c.Simulation.Rho
	s.DecayRate = c.Simulation.DecayRate
	return s
}

// PathScenario returns the path-request scenario described by the
// simulation section, using the routing weights
func (c *Config) PathScenario() simulation.PathScenario {
	weights := c.Routing.Weights
	return simulation.PathScenario{Requests: c.Simulation.PathRequests, Weights: &weights}
}
