package api

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultSearchLimit = 5
	maxSearchLimit     = 50
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RecordRequest is the body of POST /users/:user/interactions.
type RecordRequest struct {
	Human    string         `json:"human"`
	Agent    string         `json:"agent"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ContextResponse is the reply of GET /users/:user/context.
type ContextResponse struct {
	UserID  string `json:"user_id"`
	Message string `json:"message,omitempty"`
	Context string `json:"context"`
}

// SearchResponse is the reply of GET /users/:user/memories.
type SearchResponse struct {
	UserID   string   `json:"user_id"`
	Query    string   `json:"query"`
	Memories []string `json:"memories"`
	Count    int      `json:"count"`
}

// ProfileRequest is the body of PATCH /users/:user/profile.
type ProfileRequest struct {
	Traits map[string]any `json:"traits"`
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: msg})
}

// userParam returns the trimmed :user path parameter.
func userParam(c *fiber.Ctx) (string, bool) {
	user := strings.TrimSpace(c.Params("user"))
	return user, user != ""
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	return c.JSON(s.memory.Stats())
}

// handleRecord runs the write path for one exchange. The reply is 201 even
// when some steps degraded; their errors are listed in the body.
func (s *Server) handleRecord(c *fiber.Ctx) error {
	user, ok := userParam(c)
	if !ok {
		return badRequest(c, "user is required")
	}

	var req RecordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if strings.TrimSpace(req.Human) == "" && strings.TrimSpace(req.Agent) == "" {
		return badRequest(c, "human or agent text is required")
	}

	res := s.memory.RecordInteraction(c.Context(), user, req.Human, req.Agent, req.Metadata)
	if res.Degraded() {
		s.logger.Warn("interaction recorded with errors", "user", user, "errors", res.Errors)
	}

	return c.Status(fiber.StatusCreated).JSON(res)
}

// handleContext assembles the prompt context.
// Query parameters:
//   - message (optional): the user's latest message
func (s *Server) handleContext(c *fiber.Ctx) error {
	user, ok := userParam(c)
	if !ok {
		return badRequest(c, "user is required")
	}

	message := c.Query("message")
	return c.JSON(ContextResponse{
		UserID:  user,
		Message: message,
		Context: s.memory.GetContext(c.Context(), user, message),
	})
}

// handleSearch searches long-term memory.
// Query parameters:
//   - query (required): the search query text
//   - limit (optional, default 5, max 50): number of memories to return
func (s *Server) handleSearch(c *fiber.Ctx) error {
	user, ok := userParam(c)
	if !ok {
		return badRequest(c, "user is required")
	}

	query := c.Query("query")
	if strings.TrimSpace(query) == "" {
		return badRequest(c, "query parameter is required")
	}

	limit := defaultSearchLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 || parsed > maxSearchLimit {
			return badRequest(c, "limit must be an integer between 1 and 50")
		}
		limit = parsed
	}

	memories := s.memory.SearchMemories(c.Context(), user, query, limit)
	return c.JSON(SearchResponse{
		UserID:   user,
		Query:    query,
		Memories: memories,
		Count:    len(memories),
	})
}

// handleUserStats reports one user's counters. A semantic store failure is
// reported as semantic_records -1 rather than an error status.
func (s *Server) handleUserStats(c *fiber.Ctx) error {
	user, ok := userParam(c)
	if !ok {
		return badRequest(c, "user is required")
	}

	stats, err := s.memory.UserStats(c.Context(), user)
	if err != nil {
		s.logger.Warn("user stats incomplete", "user", user, "error", err)
		if stats.UserID == "" {
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to load user"})
		}
	}

	return c.JSON(stats)
}

func (s *Server) handleUpdateProfile(c *fiber.Ctx) error {
	user, ok := userParam(c)
	if !ok {
		return badRequest(c, "user is required")
	}

	var req ProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if len(req.Traits) == 0 {
		return badRequest(c, "traits are required")
	}

	if err := s.memory.UpdateProfile(c.Context(), user, req.Traits); err != nil {
		s.logger.Error("updating profile failed", "user", user, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to update profile"})
	}

	stats, err := s.memory.UserStats(c.Context(), user)
	if err != nil {
		s.logger.Warn("user stats incomplete", "user", user, "error", err)
	}
	return c.JSON(stats)
}

// handleExport returns a snapshot of everything held for the user. Partial
// failures are described in the body's error field.
func (s *Server) handleExport(c *fiber.Ctx) error {
	user, ok := userParam(c)
	if !ok {
		return badRequest(c, "user is required")
	}

	return c.JSON(s.memory.ExportUserData(c.Context(), user))
}

// handleClear removes all memory for the user. The reply is 500 when any
// sub-step failed; the body lists what was removed either way.
func (s *Server) handleClear(c *fiber.Ctx) error {
	user, ok := userParam(c)
	if !ok {
		return badRequest(c, "user is required")
	}

	res := s.memory.ClearUserMemory(c.Context(), user)
	if !res.OK() {
		return c.Status(fiber.StatusInternalServerError).JSON(res)
	}
	return c.JSON(res)
}
