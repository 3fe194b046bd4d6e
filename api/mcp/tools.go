package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/keepsake/pkg/memory"
)

const defaultSearchLimit = 5

var (
	recordToolName    = "memory_record"
	recordDescription = "Record one exchange between the user and the agent in keepsake memory. The exchange joins the short-term conversation buffer, may be stored for long-term recall, and periodically produces an episodic summary of the user's state."

	contextToolName    = "memory_context"
	contextDescription = "Assemble the memory context for a user: conversation summary, recent messages, relevant long-term memories, episodic insights and profile traits. Pass the user's latest message to focus the recalled memories on it."

	searchToolName    = "memory_search"
	searchDescription = "Search a user's long-term memories. Returns the stored texts most relevant to the query, best match first."
)

// RecordInput represents the input arguments for the memory_record tool.
type RecordInput struct {
	UserID    string `json:"user_id" jsonschema:"the user the exchange belongs to"`
	Human     string `json:"human" jsonschema:"what the user said"`
	Agent     string `json:"agent" jsonschema:"what the agent replied"`
	Important bool   `json:"important,omitempty" jsonschema:"mark the exchange as important so it is always kept"`
}

// ContextInput represents the input arguments for the memory_context tool.
type ContextInput struct {
	UserID  string `json:"user_id" jsonschema:"the user to build context for"`
	Message string `json:"message,omitempty" jsonschema:"the user's latest message, used to pick relevant memories"`
}

// ContextOutput is the assembled context.
type ContextOutput struct {
	UserID  string `json:"user_id"`
	Context string `json:"context"`
}

// SearchInput represents the input arguments for the memory_search tool.
type SearchInput struct {
	UserID string `json:"user_id" jsonschema:"the user whose memories are searched"`
	Query  string `json:"query" jsonschema:"the search query text"`
	Limit  int    `json:"limit,omitempty" jsonschema:"number of memories to return (default: 5)"`
}

// SearchOutput represents the output of the memory_search tool.
type SearchOutput struct {
	Query    string   `json:"query"`
	Memories []string `json:"memories"`
	Count    int      `json:"count"`
}

func (s *Server) handleRecord(ctx context.Context, _ *mcp.CallToolRequest, input RecordInput) (*mcp.CallToolResult, memory.RecordResult, error) {
	if strings.TrimSpace(input.UserID) == "" {
		return toolError("user_id is required"), memory.RecordResult{}, nil
	}
	if strings.TrimSpace(input.Human) == "" && strings.TrimSpace(input.Agent) == "" {
		return toolError("human or agent text is required"), memory.RecordResult{}, nil
	}

	var metadata map[string]any
	if input.Important {
		metadata = map[string]any{"important": true}
	}

	s.logger.Debug("MCP record request", "user", input.UserID)

	res := s.memory.RecordInteraction(ctx, input.UserID, input.Human, input.Agent, metadata)
	return jsonResult(res), *res, nil
}

func (s *Server) handleContext(ctx context.Context, _ *mcp.CallToolRequest, input ContextInput) (*mcp.CallToolResult, ContextOutput, error) {
	if strings.TrimSpace(input.UserID) == "" {
		return toolError("user_id is required"), ContextOutput{}, nil
	}

	out := ContextOutput{
		UserID:  input.UserID,
		Context: s.memory.GetContext(ctx, input.UserID, input.Message),
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: out.Context},
		},
	}, out, nil
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	if strings.TrimSpace(input.UserID) == "" {
		return toolError("user_id is required"), SearchOutput{}, nil
	}
	if strings.TrimSpace(input.Query) == "" {
		return toolError("query is required"), SearchOutput{}, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	s.logger.Debug("MCP search request", "user", input.UserID, "query", input.Query, "limit", limit)

	memories := s.memory.SearchMemories(ctx, input.UserID, input.Query, limit)
	out := SearchOutput{
		Query:    input.Query,
		Memories: memories,
		Count:    len(memories),
	}
	return jsonResult(out), out, nil
}

// jsonResult serializes v into a text block alongside the structured output.
func jsonResult(v any) *mcp.CallToolResult {
	b, err := json.Marshal(v)
	if err != nil {
		return toolError(fmt.Sprintf("Failed to serialize results: %v", err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}
}

func toolError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}
