// Package openai implements completion.Completer on OpenAI's chat completions API.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/papercomputeco/keepsake/pkg/completion"
)

const (
	// DefaultModel is used when Config.Model is empty.
	DefaultModel = "gpt-4o-mini"

	defaultTimeout = 60 * time.Second
)

// Config holds configuration for the OpenAI completer.
type Config struct {
	// APIKey is required.
	APIKey string

	// Model defaults to DefaultModel.
	Model string

	// BaseURL overrides the API root including the version segment,
	// e.g. "https://api.openai.com/v1".
	BaseURL string

	// Timeout bounds each request. Defaults to 60s.
	Timeout time.Duration
}

// Completer wraps the go-openai client.
type Completer struct {
	client *goopenai.Client
	model  string
}

// NewCompleter creates an OpenAI backed completer.
func NewCompleter(c Config) (*Completer, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("openai: %w", completion.ErrMissingCredentials)
	}

	model := c.Model
	if model == "" {
		model = DefaultModel
	}

	timeout := c.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	cfg := goopenai.DefaultConfig(c.APIKey)
	if c.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(c.BaseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &Completer{
		client: goopenai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

// Complete sends prompt as a single user message.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: openai chat completion: %v", completion.ErrCompletion, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: %w", completion.ErrEmptyCompletion)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("openai: %w", completion.ErrEmptyCompletion)
	}

	return text, nil
}

var _ completion.Completer = (*Completer)(nil)
