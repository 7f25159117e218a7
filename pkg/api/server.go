// Package api serves the routing engine over HTTP: JSON endpoints under
// /api/network, GraphQL, health probes and Prometheus metrics.
package api

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Co11apsar/route/pkg/api/middleware"
	"github.com/Co11apsar/route/pkg/engine"
	"github.com/Co11apsar/route/pkg/graphql"
	"github.com/Co11apsar/route/pkg/health"
	"github.com/Co11apsar/route/pkg/logging"
	"github.com/Co11apsar/route/pkg/metrics"
	"github.com/Co11apsar/route/pkg/topology"
)

// DefaultSaturationThreshold is the load ratio at which /health reports degraded
const DefaultSaturationThreshold = 0.9

// Route paths
const (
	PathInit      = "/api/network/init"
	PathStatus    = "/api/network/status"
	PathFindPath  = "/api/network/find_path"
	PathRoute     = "/api/network/route"
	PathEvaporate = "/api/network/evaporate"
	PathDecay     = "/api/network/decay"
	PathTrace     = "/api/network/trace"
	PathInfo      = "/api/info"
	PathGraphQL   = "/graphql"
	PathHealth    = "/health"
	PathReady     = "/health/ready"
	PathLive      = "/health/live"
	PathMetrics   = "/metrics"
)

// Options configures a Server. Only Engine is required.
type Options struct {
	Engine  *engine.Engine
	Metrics *metrics.Registry
	Logger  logging.Logger
	Version string

	// MaxBodyBytes limits request bodies; 0 disables the limit
	MaxBodyBytes int64

	CORS            *middleware.CORSConfig
	GraphQLMaxDepth int

	// RateLimit enables per-client rate limiting when set
	RateLimit      *middleware.RateLimitConfig
	TrustedProxies []*net.IPNet

	SaturationThreshold float64

	// TopologyLimits bounds topologies posted to init; zero fields use the
	// hard ceilings of the topology package
	TopologyLimits topology.Limits
}

// Server represents the HTTP API server
type Server struct {
	engine         *engine.Engine
	metrics        *metrics.Registry
	logger         logging.Logger
	healthChecker  *health.HealthChecker
	graphqlHandler *graphql.GraphQLHandler
	rateLimiter    *middleware.RateLimiter
	opts           Options
	startTime      time.Time
}

// NewServer creates a new API server
func NewServer(opts Options) (*Server, error) {
	if opts.Engine == nil {
		return nil, errors.New("api: engine is required")
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if opts.CORS == nil {
		opts.CORS = middleware.DefaultCORSConfig()
	}
	if opts.SaturationThreshold <= 0 {
		opts.SaturationThreshold = DefaultSaturationThreshold
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	schema, err := graphql.NewSchema(opts.Engine)
	if err != nil {
		return nil, fmt.Errorf("failed to build GraphQL schema: %w", err)
	}

	s := &Server{
		engine:         opts.Engine,
		metrics:        opts.Metrics,
		logger:         opts.Logger.With(logging.Component("api")),
		healthChecker:  health.NewHealthChecker(),
		graphqlHandler: graphql.NewGraphQLHandler(schema, opts.GraphQLMaxDepth, middleware.GetRequestID),
		opts:           opts,
		startTime:      time.Now(),
	}
	if opts.RateLimit != nil {
		s.rateLimiter = middleware.NewRateLimiter(opts.RateLimit)
	}

	s.registerHealthChecks()
	return s, nil
}

func (s *Server) registerHealthChecks() {
	status := s.engine.Status

	s.healthChecker.RegisterCheck("network", health.NetworkCheck(status))
	s.healthChecker.RegisterCheck("saturation", health.SaturationCheck(status, s.opts.SaturationThreshold))
	s.healthChecker.RegisterCheck("memory", health.MemoryCheck(nil))

	s.healthChecker.RegisterReadinessCheck("network", health.NetworkCheck(status))

	s.healthChecker.RegisterLivenessCheck("server", func() health.Check {
		return health.Check{Status: health.StatusHealthy, Message: "Serving"}
	})
}

// HealthChecker exposes the checker so callers can register more checks
func (s *Server) HealthChecker() *health.HealthChecker {
	return s.healthChecker
}

// Routes registers every endpoint on a new mux
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc(PathInit, s.handleInit)
	mux.HandleFunc(PathStatus, s.handleStatus)
	mux.HandleFunc(PathFindPath, s.handleFindPath)
	mux.HandleFunc(PathRoute, s.handleRoute)
	mux.HandleFunc(PathEvaporate, s.handleEvaporate)
	mux.HandleFunc(PathDecay, s.handleDecay)
	mux.HandleFunc(PathTrace, s.handleTrace)
	mux.HandleFunc(PathInfo, s.handleInfo)

	mux.Handle(PathGraphQL, s.graphqlHandler)

	mux.HandleFunc(PathHealth, s.healthChecker.HTTPHandler())
	mux.HandleFunc(PathReady, s.healthChecker.ReadinessHandler())
	mux.HandleFunc(PathLive, s.healthChecker.LivenessHandler())

	if s.metrics != nil {
		mux.Handle(PathMetrics, s.metricsHandler())
	}
	return mux
}

// Handler returns the routes wrapped in the middleware chain. Recovery runs
// outermost so that panics in any later layer become a 500.
func (s *Server) Handler() http.Handler {
	chain := []middleware.Middleware{
		middleware.PanicRecovery(s.logger),
		middleware.RequestID(),
		middleware.Logging(s.logger),
	}
	if s.metrics != nil {
		chain = append(chain, middleware.Metrics(s.metrics, routeLabel))
	}
	chain = append(chain, middleware.CORS(s.opts.CORS))
	if s.rateLimiter != nil {
		chain = append(chain, middleware.RateLimit(s.rateLimiter, middleware.ClientIP(s.opts.TrustedProxies), s.onRateLimited))
	}
	if s.opts.MaxBodyBytes > 0 {
		chain = append(chain, middleware.BodySizeLimit(s.opts.MaxBodyBytes))
	}
	return middleware.Chain(s.Routes(), chain...)
}

// Close releases background resources
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}

func (s *Server) onRateLimited(r *http.Request, clientID string) {
	if s.metrics != nil {
		s.metrics.RecordRateLimited()
	}
	s.logger.Debug("rate limited",
		logging.String("client", clientID),
		logging.RequestID(middleware.GetRequestID(r)))
}

func (s *Server) metricsHandler() http.Handler {
	promHandler := promhttp.HandlerFor(s.metrics.GetPrometheusRegistry(), promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var since time.Time
		if info, err := s.engine.Info(); err == nil {
			since = info.InitializedAt
		}
		s.metrics.UpdateSystemMetrics(s.startTime, since)
		promHandler.ServeHTTP(w, r)
	})
}

var knownRoutes = map[string]bool{
	PathInit: true, PathStatus: true, PathFindPath: true, PathRoute: true,
	PathEvaporate: true, PathDecay: true, PathTrace: true, PathInfo: true,
	PathGraphQL: true, PathHealth: true, PathReady: true, PathLive: true,
	PathMetrics: true,
}

// routeLabel keeps the metrics path label bounded
func routeLabel(r *http.Request) string {
	if knownRoutes[r.URL.Path] {
		return r.URL.Path
	}
	return "other"
}
