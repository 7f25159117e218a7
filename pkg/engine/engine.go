// Package engine owns the routing session: the current network, the seeded
// random source and the defaults every request falls back to. Requests are
// logged, counted in metrics and published as events.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Co11apsar/route/pkg/algorithms"
	"github.com/Co11apsar/route/pkg/events"
	"github.com/Co11apsar/route/pkg/logging"
	"github.com/Co11apsar/route/pkg/metrics"
	"github.com/Co11apsar/route/pkg/network"
	"github.com/Co11apsar/route/pkg/topology"
	"github.com/Co11apsar/route/pkg/trace"
)

// ErrNotInitialized is returned by every request made before a network exists
var ErrNotInitialized = errors.New("network not initialized")

// Source describes how the current network was built
type Source string

const (
	SourceRandom      Source = "random"
	SourceTopology    Source = "topology"
	SourceLoadBalance Source = "load_balance"
)

// Options configures an Engine
type Options struct {
	// Weights are used by FindPath when a request supplies none
	Weights algorithms.Weights

	Ant      algorithms.AntParams
	DepositQ float64
	MaxHops  int

	// MaxPops bounds one path search; 0 means unbounded
	MaxPops int

	// SearchTimeout bounds one request; 0 means only the caller's context applies
	SearchTimeout time.Duration

	// Random configures InitRandom
	Random topology.RandomConfig

	Logger    logging.Logger
	Metrics   *metrics.Registry
	Publisher events.Publisher

	// Trace, when set, receives the records of every FindPath
	Trace *trace.Writer
}

// DefaultOptions returns the weights, ant parameters and random topology of
// the reference simulation
func DefaultOptions() Options {
	return Options{
		Weights:  algorithms.DefaultWeights(),
		Ant:      algorithms.DefaultAntParams(),
		DepositQ: algorithms.DefaultDepositQ,
		Random:   topology.DefaultRandomConfig(),
	}
}

// Info describes the current network
type Info struct {
	Source        Source    `json:"source"`
	Seed          uint64    `json:"seed"`
	Nodes         int       `json:"nodes"`
	Edges         int       `json:"edges"`
	HasDelays     bool      `json:"has_delays"`
	InitializedAt time.Time `json:"initialized_at"`
}

// session is everything that is replaced together on (re)initialisation
type session struct {
	net    *network.Network
	router *algorithms.HybridRouter
	info   Info
}

// Engine serves path and routing requests against one network at a time.
// It is safe for concurrent use; each request runs as one atomic update of
// the network.
type Engine struct {
	opts      Options
	logger    logging.Logger
	metrics   *metrics.Registry
	publisher events.Publisher

	mu        sync.RWMutex
	current   *session
	lastTrace []algorithms.PathRecord
}

// New creates an engine with no network; call one of the Init methods first
func New(opts Options) (*Engine, error) {
	if err := opts.Weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid default weights: %w", err)
	}
	if err := opts.Ant.Validate(); err != nil {
		return nil, err
	}
	if opts.DepositQ < 0 {
		return nil, fmt.Errorf("%w: deposit Q must not be negative", algorithms.ErrInvalidAntParams)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Discard{}
	}

	return &Engine{
		opts:      opts,
		logger:    opts.Logger.With(logging.Component("engine")),
		metrics:   opts.Metrics,
		publisher: opts.Publisher,
	}, nil
}

// NewRand returns the random source used for a given seed
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// InitRandom replaces the network with a random secure network built from seed
func (e *Engine) InitRandom(seed uint64) (Info, error) {
	rng := NewRand(seed)
	net, err := topology.RandomSecureNetwork(rng, e.opts.Random)
	if err != nil {
		return Info{}, err
	}
	return e.install(net, SourceRandom, seed, rng)
}

// InitFromTopology replaces the network with one built from spec. The seed
// drives random delays, if the topology asks for them, and ant sampling.
func (e *Engine) InitFromTopology(spec *topology.Spec, seed uint64) (Info, error) {
	rng := NewRand(seed)
	net, err := topology.Build(spec, rng)
	if err != nil {
		return Info{}, err
	}
	return e.install(net, SourceTopology, seed, rng)
}

// InitLoadBalance replaces the network with the edgeless, fully delayed
// network of the load-balancing scenario
func (e *Engine) InitLoadBalance(seed uint64, nodes, minDelay, maxDelay int) (Info, error) {
	rng := NewRand(seed)
	net, err := topology.LoadBalanceNetwork(rng, nodes, minDelay, maxDelay)
	if err != nil {
		return Info{}, err
	}
	return e.install(net, SourceLoadBalance, seed, rng)
}

// Install replaces the network with net, which the engine now owns
func (e *Engine) Install(net *network.Network, seed uint64) (Info, error) {
	return e.install(net, SourceTopology, seed, NewRand(seed))
}

func (e *Engine) install(net *network.Network, source Source, seed uint64, rng *rand.Rand) (Info, error) {
	ants, err := algorithms.NewPheromoneEngine(e.opts.Ant, rng)
	if err != nil {
		return Info{}, err
	}
	router := algorithms.NewHybridRouter(ants)
	router.Q = e.opts.DepositQ
	router.MaxHops = e.opts.MaxHops

	stats := net.Statistics()
	info := Info{
		Source:        source,
		Seed:          seed,
		Nodes:         stats.NodeCount,
		Edges:         stats.EdgeCount,
		HasDelays:     net.Delays() != nil,
		InitializedAt: time.Now(),
	}

	e.mu.Lock()
	e.current = &session{net: net, router: router, info: info}
	e.lastTrace = nil
	e.mu.Unlock()

	e.logger.Info("network initialized",
		logging.String("source", string(source)),
		logging.Seed(seed),
		logging.Int("nodes", info.Nodes),
		logging.Int("edges", info.Edges),
		logging.Bool("has_delays", info.HasDelays))
	if e.metrics != nil {
		e.metrics.RecordNetworkInit(string(source))
	}
	e.refreshMetrics(net)
	e.publish(context.Background(), events.NetworkInitialized, info)
	return info, nil
}

func (e *Engine) session() (*session, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.current == nil {
		return nil, ErrNotInitialized
	}
	return e.current, nil
}

// Network returns the current network
func (e *Engine) Network() (*network.Network, error) {
	s, err := e.session()
	if err != nil {
		return nil, err
	}
	return s.net, nil
}

// Info describes the current network
func (e *Engine) Info() (Info, error) {
	s, err := e.session()
	if err != nil {
		return Info{}, err
	}
	return s.info, nil
}

// Options returns the engine's configuration
func (e *Engine) Options() Options {
	return e.opts
}

type requestIDKey struct{}

// WithRequestID attaches a request id that the engine uses instead of generating one
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id attached by WithRequestID, if any
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

func requestID(ctx context.Context) string {
	if id, ok := RequestIDFromContext(ctx); ok {
		return id
	}
	return uuid.NewString()
}

func (e *Engine) publish(ctx context.Context, typ events.Type, payload any) {
	id, _ := RequestIDFromContext(ctx)
	ev := events.Event{Type: typ, RequestID: id, Time: time.Now(), Payload: payload}
	if err := e.publisher.Publish(ev); err != nil {
		e.logger.Warn("failed to publish event",
			logging.String("type", string(typ)),
			logging.RequestID(id),
			logging.Error(err))
	}
}

func (e *Engine) refreshMetrics(net *network.Network) {
	if e.metrics == nil {
		return
	}
	e.metrics.UpdateNetworkMetrics(net.Status(), net.Statistics())
}
