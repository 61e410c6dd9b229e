// Package mcpserver wraps an MCP server with x402 payment gating. Priced
// tools are declared in a pricing table; the gate challenges tools/call
// requests for those tools before they reach the MCP server.
package mcpserver

import (
	"fmt"
	"log/slog"
	"net/http"

	mcpproto "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"

	x402gate "github.com/payrail/x402gate"
	"github.com/payrail/x402gate/facilitator"
	"github.com/payrail/x402gate/gate"
	"github.com/payrail/x402gate/pricing"
	"github.com/payrail/x402gate/retry"
)

// DefaultEndpoint is the HTTP path the MCP server is served under.
const DefaultEndpoint = "/mcp"

// Config holds configuration for a payment-gated MCP server.
type Config struct {
	// Pricing maps tool names to payment options. Tools absent from the
	// table are free.
	Pricing *pricing.Table

	// PayTo is the payment recipient address.
	PayTo string

	// Facilitator verifies and settles payments. Required whenever the
	// pricing table is non-empty.
	Facilitator facilitator.Facilitator

	// Endpoint is the HTTP path for the MCP server. Defaults to "/mcp".
	Endpoint string

	// Timeouts bounds facilitator calls. Defaults to x402gate.DefaultTimeouts.
	Timeouts x402gate.Timeouts

	// Retry is applied around payment verification.
	Retry retry.Policy

	// VerifyOnly skips settlement (useful for testing).
	VerifyOnly bool

	// Enforce makes incomplete payment configuration a startup error.
	Enforce bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Server is an MCP server with x402 payment protection.
type Server struct {
	mcpServer *mcpsrv.MCPServer
	cfg       Config
	tools     map[string]bool
}

// New creates a payment-gated MCP server.
func New(name, version string, cfg Config) *Server {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	return &Server{
		mcpServer: mcpsrv.NewMCPServer(name, version, mcpsrv.WithToolCapabilities(true)),
		cfg:       cfg,
		tools:     make(map[string]bool),
	}
}

// AddTool registers a tool. Whether it requires payment is decided by the
// pricing table, not by how it is registered.
func (s *Server) AddTool(tool mcpproto.Tool, handler mcpsrv.ToolHandlerFunc) {
	s.tools[tool.Name] = true
	s.mcpServer.AddTool(tool, handler)
}

// Handler returns the HTTP handler serving the MCP server behind the payment
// gate. Every priced operation must name a registered tool; a stale pricing
// entry is a configuration error rather than a price that silently never
// applies.
func (s *Server) Handler() (http.Handler, error) {
	if s.cfg.Pricing != nil {
		for _, op := range s.cfg.Pricing.Operations() {
			if !s.tools[op] {
				return nil, fmt.Errorf("%w: priced tool %q is not registered", x402gate.ErrConfiguration, op)
			}
		}
	}

	g, err := gate.New(gate.Config{
		Pricing:     s.cfg.Pricing,
		RPCPrefixes: []string{s.cfg.Endpoint},
		PayTo:       s.cfg.PayTo,
		Facilitator: s.cfg.Facilitator,
		Timeouts:    s.cfg.Timeouts,
		Retry:       s.cfg.Retry,
		VerifyOnly:  s.cfg.VerifyOnly,
		Enforce:     s.cfg.Enforce,
		Logger:      s.cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	httpServer := mcpsrv.NewStreamableHTTPServer(s.mcpServer,
		mcpsrv.WithEndpointPath(s.cfg.Endpoint))
	return g.Handler(httpServer), nil
}

// Start serves the gated MCP server on addr.
func (s *Server) Start(addr string) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}
	return http.ListenAndServe(addr, handler)
}

// MCPServer returns the underlying MCP server for advanced usage.
func (s *Server) MCPServer() *mcpsrv.MCPServer {
	return s.mcpServer
}
