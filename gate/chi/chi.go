// Package chi provides Chi-compatible integration for the x402 payment gate:
// a route registry that resolves Chi URL patterns to operation IDs, and a
// middleware constructor with Chi's func(http.Handler) http.Handler shape.
package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/payrail/x402gate/gate"
)

// Registry resolves requests to operation IDs using Chi's routing tree, so
// priced routes can use URL parameters and wildcards.
//
// Example usage:
//
//	reg := chix402.NewRegistry()
//	reg.Add("GET", "/reports/{id}", "get_report")
//	g, err := gate.New(gate.Config{Routes: reg, ...})
//	r := chi.NewRouter()
//	r.Use(chix402.Middleware(g))
type Registry struct {
	mux *chi.Mux
	ops map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		mux: chi.NewRouter(),
		ops: make(map[string]string),
	}
}

// Add registers a method and Chi pattern for an operation ID.
func (reg *Registry) Add(method, pattern, operationID string) {
	reg.mux.Method(method, pattern, http.NotFoundHandler())
	reg.ops[method+" "+pattern] = operationID
}

// Resolve implements gate.RouteRegistry. It matches against the routing tree
// without invoking any handler and never reads the request body.
func (reg *Registry) Resolve(r *http.Request) (string, bool) {
	rctx := chi.NewRouteContext()
	if !reg.mux.Match(rctx, r.Method, r.URL.Path) {
		return "", false
	}
	op, ok := reg.ops[r.Method+" "+rctx.RoutePattern()]
	return op, ok
}

// Middleware wraps a gate into Chi middleware. The gate's stdlib handler
// already has the shape Chi expects; this exists so Chi users do not import
// the gate package for the middleware and the registry from two places.
func Middleware(g *gate.Gate) func(http.Handler) http.Handler {
	return g.Handler
}
