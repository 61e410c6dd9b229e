package gate

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// DefaultMaxRPCBodyBytes caps how much of a JSON-RPC body the resolver will
// buffer when sniffing for tools/call.
const DefaultMaxRPCBodyBytes = 1 << 20

// Resolver maps an incoming request to an operation ID, trying the route
// registry first and falling back to JSON-RPC tools/call sniffing for POSTs
// under the configured RPC path prefixes.
//
// Route resolution never touches the request body, so requests priced by
// path stream through untouched. Only plausibly-JSON-RPC requests are
// buffered, and any failure to resolve fails open: the request passes
// through unpriced rather than being rejected.
type Resolver struct {
	routes      RouteRegistry
	rpcPrefixes []string
	maxRPCBody  int64
	logger      *slog.Logger
}

// NewResolver creates a resolver. Either routes or rpcPrefixes may be empty.
func NewResolver(routes RouteRegistry, rpcPrefixes []string, maxRPCBody int64, logger *slog.Logger) *Resolver {
	if maxRPCBody <= 0 {
		maxRPCBody = DefaultMaxRPCBodyBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		routes:      routes,
		rpcPrefixes: rpcPrefixes,
		maxRPCBody:  maxRPCBody,
		logger:      logger,
	}
}

// Resolve returns the operation ID for a request, or ok=false when the
// request maps to no known operation.
func (res *Resolver) Resolve(r *http.Request) (string, bool) {
	if res.routes != nil {
		if op, ok := res.routes.Resolve(r); ok {
			return op, true
		}
	}

	if r.Method != http.MethodPost || !res.underRPCPrefix(r.URL.Path) {
		return "", false
	}
	return res.resolveRPC(r)
}

func (res *Resolver) underRPCPrefix(path string) bool {
	for _, prefix := range res.rpcPrefixes {
		if path == prefix || strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/") {
			return true
		}
	}
	return false
}

// resolveRPC buffers the body and extracts the tool name from a JSON-RPC
// tools/call request. Malformed or oversized bodies resolve to "unresolved".
func (res *Resolver) resolveRPC(r *http.Request) (string, bool) {
	body, err := bufferBody(r, res.maxRPCBody)
	if err != nil {
		res.logger.Warn("failed to buffer JSON-RPC body; passing through", "path", r.URL.Path, "error", err)
		return "", false
	}
	defer body.Rewind()

	var rpcReq struct {
		Method string `json:"method"`
		Params struct {
			Name string `json:"name"`
		} `json:"params"`
	}
	if err := json.Unmarshal(body.Bytes(), &rpcReq); err != nil {
		res.logger.Warn("malformed JSON-RPC body; passing through", "path", r.URL.Path, "error", err)
		return "", false
	}

	if rpcReq.Method != "tools/call" || rpcReq.Params.Name == "" {
		return "", false
	}
	return rpcReq.Params.Name, true
}
