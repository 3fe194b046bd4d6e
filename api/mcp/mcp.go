// Package mcp provides an MCP (Model Context Protocol) server exposing keepsake
// memory to agents as tools.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/keepsake/pkg/logger"
	"github.com/papercomputeco/keepsake/pkg/memory"
	"github.com/papercomputeco/keepsake/pkg/utils"
)

const instructions = "keepsake remembers users across conversations. Call memory_context " +
	"before answering a user, and memory_record after every exchange. Use memory_search " +
	"to look up something specific the user said before."

// Memory is the part of *memory.Orchestrator the tools use.
type Memory interface {
	RecordInteraction(ctx context.Context, userID, human, agent string, metadata map[string]any) *memory.RecordResult
	GetContext(ctx context.Context, userID, message string) string
	SearchMemories(ctx context.Context, userID, query string, limit int) []string
}

type Config struct {
	// Memory backs every tool. Required unless Noop is set.
	Memory Memory

	// Noop serves the protocol with no tools registered.
	Noop bool

	// Logger defaults to a discarding logger.
	Logger *slog.Logger
}

type Server struct {
	memory    Memory
	logger    *slog.Logger
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer builds the MCP server and its stateless streamable HTTP handler.
func NewServer(c Config) (*Server, error) {
	if !c.Noop && c.Memory == nil {
		return nil, errors.New("memory is required")
	}
	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	s := &Server{memory: c.Memory, logger: log}
	s.mcpServer = mcp.NewServer(
		&mcp.Implementation{Name: "keepsake", Version: utils.Version},
		&mcp.ServerOptions{Instructions: instructions},
	)
	if !c.Noop {
		s.registerTools()
	}

	s.handler = mcp.NewStreamableHTTPHandler(
		func(*http.Request) *mcp.Server { return s.mcpServer },
		&mcp.StreamableHTTPOptions{Stateless: true},
	)
	return s, nil
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        recordToolName,
		Description: recordDescription,
	}, s.handleRecord)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        contextToolName,
		Description: contextDescription,
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, s.handleContext)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        searchToolName,
		Description: searchDescription,
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, s.handleSearch)
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}
