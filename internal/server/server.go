package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/teltube/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an http.Handler that knows which paths it serves.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router registers handlers and applies middleware.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// LogRequests logs each request's method, path, status and duration at debug level.
func LogRequests(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Debug("callback request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// CallbackServer is a local HTTP listener that lives for the duration of one sign-in.
type CallbackServer struct {
	srv    *http.Server
	ln     net.Listener
	errs   chan error
	logger *log.Logger
}

// Listen binds addr and serves handler in the background. Binding errors are returned immediately.
func Listen(addr string, handler http.Handler, logger *log.Logger) (*CallbackServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, shared.NewError(shared.ErrServiceUnavailable, 0, fmt.Sprintf("could not listen on %s", addr), err)
	}

	s := &CallbackServer{
		srv:    &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second},
		ln:     ln,
		errs:   make(chan error, 1),
		logger: logger,
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errs <- err
		}
		close(s.errs)
	}()

	logger.Info("callback server listening", "addr", ln.Addr().String())
	return s, nil
}

// Addr returns the bound address, which differs from the requested one when port 0 was used.
func (s *CallbackServer) Addr() string {
	return s.ln.Addr().String()
}

// Errors delivers a serve failure, if any, and is closed when the server stops.
func (s *CallbackServer) Errors() <-chan error {
	return s.errs
}

// Shutdown stops the listener, waiting up to five seconds for in-flight requests.
func (s *CallbackServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("error shutting down callback server", "error", err)
	}
}
