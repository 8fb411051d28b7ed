package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ChiRouter implements the [Router] interface on top of [chi.Mux].
//
// Middleware must be added before any route is registered.
type ChiRouter struct {
	mux *chi.Mux
}

// NewChiRouter creates a new [ChiRouter] whose unmatched routes answer with JSON errors.
func NewChiRouter() *ChiRouter {
	mux := chi.NewRouter()
	mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not_found", "route not found")
	})
	mux.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})
	return &ChiRouter{mux: mux}
}

// Use adds [Middleware] to the router's middleware stack, applied in the order it's added.
func (r *ChiRouter) Use(middleware ...Middleware) {
	for _, mw := range middleware {
		r.mux.Use(mw)
	}
}

// Handle registers a handler for the specified HTTP method and path.
func (r *ChiRouter) Handle(method, path string, handler http.Handler) {
	r.mux.Method(method, path, handler)
}

// Handler mounts every route of a [Handler] implementation.
func (r *ChiRouter) Handler(handler Handler) {
	handler.Mount(r.mux)
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *ChiRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}
