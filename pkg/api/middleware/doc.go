// Package middleware provides the HTTP middleware of the route API server.
//
// The middleware package is organized into separate files by concern:
//
//   - recovery.go: Panic recovery middleware
//   - request_id.go: Request ID assignment and propagation
//   - logging.go: Structured request logging
//   - cors.go: Cross-Origin Resource Sharing (CORS) middleware
//   - body_limit.go: Request body size limiting middleware
//   - ratelimit.go: Per-client token bucket rate limiting
//   - trusted_proxy.go: Client IP extraction behind trusted proxies
//   - metrics.go: HTTP metrics collection middleware
//
// All middleware follows the standard pattern: func(http.Handler) http.Handler
// and is combined with Chain:
//
//	handler := middleware.Chain(mux,
//		middleware.PanicRecovery(logger),
//		middleware.RequestID(),
//		middleware.Logging(logger),
//		middleware.CORS(middleware.DefaultCORSConfig()),
//	)
package middleware

import "net/http"

// Middleware wraps a handler
type Middleware func(http.Handler) http.Handler

// Chain applies mws to h so that the first one listed runs first
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			h = mws[i](h)
		}
	}
	return h
}
