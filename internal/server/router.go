package server

import (
	"net/http"
	"sort"
	"strings"
)

// BasicRouter is a [Router] backed by [http.ServeMux] with per-path method dispatch.
type BasicRouter struct {
	mux         *http.ServeMux
	methods     map[string]map[string]http.Handler
	middlewares []Middleware
}

// NewBasicRouter creates an empty [BasicRouter].
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{
		mux:     http.NewServeMux(),
		methods: make(map[string]map[string]http.Handler),
	}
}

// Use adds [Middleware] to the stack. It applies to handlers registered afterwards.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers handler for method on path. Other methods on the same path answer 405.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	method = strings.ToUpper(method)
	byMethod, seen := r.methods[path]
	if !seen {
		byMethod = make(map[string]http.Handler)
		r.methods[path] = byMethod
		r.mux.Handle(path, r.dispatch(path))
	}
	byMethod[method] = r.Apply(handler)
}

// Handler registers every route of handler for all methods.
func (r *BasicRouter) Handler(handler Handler) {
	wrapped := r.Apply(handler)
	for _, route := range handler.Routes() {
		r.mux.Handle(route, wrapped)
	}
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps handler with all registered middleware, last added innermost.
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	wrapped := handler
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}
	return wrapped
}

func (r *BasicRouter) dispatch(path string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		byMethod := r.methods[path]
		if h, ok := byMethod[strings.ToUpper(req.Method)]; ok {
			h.ServeHTTP(w, req)
			return
		}

		allowed := make([]string, 0, len(byMethod))
		for m := range byMethod {
			allowed = append(allowed, m)
		}
		sort.Strings(allowed)
		w.Header().Set("Allow", strings.Join(allowed, ", "))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})
}
