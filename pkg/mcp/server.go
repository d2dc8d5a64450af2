// Package mcp exposes the knowledge graph over the Model Context Protocol.
//
// The server speaks the stdio transport, so nothing in this package may
// write to stdout; all logging goes through the injected slog handler,
// which the CLI points at stderr or a file.
package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/engramkit/engram"
)

// Server wraps the graph client behind an MCP tool surface.
type Server struct {
	client engram.GraphClient
	logger *slog.Logger
	mcp    *server.MCPServer
}

// New creates an MCP server named "memory" with the nine graph tools
// registered. The name is part of the wire contract; clients configured
// for the original memory server address tools as memory/<tool>.
func New(client engram.GraphClient, logger *slog.Logger, version string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		client: client,
		logger: logger,
		mcp: server.NewMCPServer(
			"memory",
			version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
	}
	s.registerTools()
	return s
}

// ServeStdio serves requests from stdin until the context is canceled or
// the stream closes.
func (s *Server) ServeStdio(ctx context.Context) error {
	s.logger.Info("starting MCP server", "transport", "stdio")
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}
