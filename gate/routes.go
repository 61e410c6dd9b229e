package gate

import "net/http"

// RouteRegistry resolves a request to an operation ID. Implementations must
// check routes in their declared order; the first match wins.
type RouteRegistry interface {
	Resolve(r *http.Request) (operationID string, ok bool)
}

// Route binds a method and exact path to an operation ID. An empty Method
// matches any method.
type Route struct {
	Method      string
	Path        string
	OperationID string
}

// PathRegistry is an ordered, exact-path RouteRegistry. For pattern matching
// use the chi-backed registry in gate/chi.
type PathRegistry struct {
	routes []Route
}

// NewPathRegistry creates a registry from routes in priority order.
func NewPathRegistry(routes ...Route) *PathRegistry {
	return &PathRegistry{routes: routes}
}

// Add appends a route at the lowest priority.
func (p *PathRegistry) Add(method, path, operationID string) {
	p.routes = append(p.routes, Route{Method: method, Path: path, OperationID: operationID})
}

// Resolve returns the operation ID of the first matching route.
func (p *PathRegistry) Resolve(r *http.Request) (string, bool) {
	for _, route := range p.routes {
		if route.Method != "" && route.Method != r.Method {
			continue
		}
		if route.Path != r.URL.Path {
			continue
		}
		return route.OperationID, true
	}
	return "", false
}
