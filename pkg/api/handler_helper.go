package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Co11apsar/route/pkg/api/middleware"
	"github.com/Co11apsar/route/pkg/logging"
)

// requestDecoder decodes and validates request bodies.
// It provides a fluent interface for common request handling patterns.
type requestDecoder struct {
	r          *http.Request
	w          http.ResponseWriter
	server     *Server
	err        error
	statusCode int
}

// NewRequestDecoder creates a new request decoder for the given request.
func (s *Server) NewRequestDecoder(w http.ResponseWriter, r *http.Request) *requestDecoder {
	return &requestDecoder{
		r:      r,
		w:      w,
		server: s,
	}
}

func (rd *requestDecoder) decode(v any, optional bool) *requestDecoder {
	if rd.err != nil {
		return rd
	}
	err := json.NewDecoder(rd.r.Body).Decode(v)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return rd
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		rd.err = fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		rd.statusCode = http.StatusRequestEntityTooLarge
		return rd
	}
	rd.err = fmt.Errorf("invalid request body: %w", err)
	rd.statusCode = http.StatusBadRequest
	return rd
}

// DecodeJSON decodes the request body into the provided struct.
// Returns the decoder for chaining. Check HasError() after calling.
func (rd *requestDecoder) DecodeJSON(v any) *requestDecoder {
	return rd.decode(v, false)
}

// DecodeOptionalJSON is DecodeJSON where an empty body leaves v untouched
func (rd *requestDecoder) DecodeOptionalJSON(v any) *requestDecoder {
	return rd.decode(v, true)
}

// Validate runs check and records its error as a bad request.
func (rd *requestDecoder) Validate(check func() error) *requestDecoder {
	if rd.err != nil {
		return rd
	}
	if err := check(); err != nil {
		rd.err = err
		rd.statusCode = http.StatusBadRequest
	}
	return rd
}

// HasError returns true if any error occurred during decoding/validation.
func (rd *requestDecoder) HasError() bool {
	return rd.err != nil
}

// RespondError sends the error response and returns true if there was an error.
// Returns false if no error occurred.
func (rd *requestDecoder) RespondError() bool {
	if rd.err == nil {
		return false
	}
	rd.server.respondError(rd.w, rd.r, rd.statusCode, rd.err.Error())
	return true
}

// methodRouter routes requests based on HTTP method.
// Provides a cleaner alternative to switch statements for method routing.
type methodRouter struct {
	w       http.ResponseWriter
	r       *http.Request
	server  *Server
	handled bool
}

// NewMethodRouter creates a new method router.
func (s *Server) NewMethodRouter(w http.ResponseWriter, r *http.Request) *methodRouter {
	return &methodRouter{
		w:      w,
		r:      r,
		server: s,
	}
}

// Get handles GET requests with the provided handler.
func (mr *methodRouter) Get(handler func()) *methodRouter {
	if !mr.handled && mr.r.Method == http.MethodGet {
		handler()
		mr.handled = true
	}
	return mr
}

// Post handles POST requests with the provided handler.
func (mr *methodRouter) Post(handler func()) *methodRouter {
	if !mr.handled && mr.r.Method == http.MethodPost {
		handler()
		mr.handled = true
	}
	return mr
}

// NotAllowed sends a 405 response if no method matched.
func (mr *methodRouter) NotAllowed() {
	if !mr.handled {
		mr.server.respondError(mr.w, mr.r, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode JSON response", logging.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Code:      status,
		RequestID: middleware.GetRequestID(r),
	})
}

// respondDomainError reports an engine error with the status it maps to.
// Internal errors are logged in full but answered with a generic message.
func (s *Server) respondDomainError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			logging.Operation(operation),
			logging.RequestID(middleware.GetRequestID(r)),
			logging.Error(err))
		s.respondError(w, r, status, fmt.Sprintf("%s failed", operation))
		return
	}
	s.respondError(w, r, status, err.Error())
}
