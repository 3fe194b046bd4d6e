package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/papercomputeco/keepsake/api/mcp"
	"github.com/papercomputeco/keepsake/pkg/logger"
	"github.com/papercomputeco/keepsake/pkg/memory"
)

// Memory is the part of *memory.Orchestrator the server exposes.
type Memory interface {
	mcp.Memory
	UpdateProfile(ctx context.Context, userID string, traits map[string]any) error
	ClearUserMemory(ctx context.Context, userID string) *memory.ClearResult
	ExportUserData(ctx context.Context, userID string) *memory.Export
	UserStats(ctx context.Context, userID string) (memory.UserStats, error)
	Stats() memory.Stats
}

// Server is the API server for the keepsake memory subsystem.
type Server struct {
	config Config
	memory Memory
	logger *slog.Logger
	app    *fiber.App
}

// NewServer creates a new API server around mem.
func NewServer(config Config, mem Memory, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = logger.Nop()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		// user ids become map keys and file names
		Immutable:    true,
		UnescapePath: true,
	})
	app.Use(recover.New())

	s := &Server{
		config: config,
		memory: mem,
		logger: log,
		app:    app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/stats", s.handleStats)

	app.Get("/users/:user", s.handleUserStats)
	app.Delete("/users/:user", s.handleClear)
	app.Post("/users/:user/interactions", s.handleRecord)
	app.Get("/users/:user/context", s.handleContext)
	app.Get("/users/:user/memories", s.handleSearch)
	app.Patch("/users/:user/profile", s.handleUpdateProfile)
	app.Get("/users/:user/export", s.handleExport)

	if !config.DisableMCP {
		mcpServer, err := mcp.NewServer(mcp.Config{Memory: mem, Logger: log.With("component", "mcp")})
		if err != nil {
			return nil, err
		}
		app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Handler exposes the server as a net/http handler.
func (s *Server) Handler() http.Handler {
	return adaptor.FiberApp(s.app)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
