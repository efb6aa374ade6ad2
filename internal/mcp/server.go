package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/showcasehq/showcase/internal/config"
	"github.com/showcasehq/showcase/internal/reviews"
)

// MCPServer wraps the mcp-go server with the site's tool and resource
// registrations. It exposes the published content (pricing, projects,
// contact details and reviews) read-only, so agents can answer questions
// about the site without scraping the rendered pages.
type MCPServer struct {
	store   *config.Store
	reviews *reviews.Client
	logger  *slog.Logger
	server  *server.MCPServer
}

// NewMCPServer creates an MCPServer pre-loaded with all content tools and
// resources. rc may be nil when no reviews feed is configured.
func NewMCPServer(name, version string, store *config.Store, rc *reviews.Client, logger *slog.Logger) *MCPServer {
	if name == "" {
		name = "Showcase"
	}
	s := &MCPServer{
		store:   store,
		reviews: rc,
		logger:  logger,
	}

	mcpServer := server.NewMCPServer(
		name+" Content",
		version,
		server.WithResourceCapabilities(true, false),
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.server = mcpServer
	return s
}

// Server returns the underlying mcp-go MCPServer instance. Useful for
// advanced configuration or testing.
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}

// ServeStdio starts the MCP server in stdio mode, the integration path for
// clients that launch the server as a subprocess.
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server in stdio mode")
	return server.ServeStdio(s.server)
}

// ServeHTTP starts the MCP server in Streamable HTTP mode, listening on
// the given address (e.g. ":3001").
func (s *MCPServer) ServeHTTP(addr string) error {
	httpServer := server.NewStreamableHTTPServer(s.server)
	s.logger.Info("MCP HTTP server starting", "addr", addr)
	return httpServer.Start(addr)
}

func readOnlyAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint:   boolPtr(true),
		IdempotentHint: boolPtr(true),
	}
}

func boolPtr(b bool) *bool {
	return &b
}
