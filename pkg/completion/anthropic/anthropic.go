// Package anthropic implements completion.Completer on Anthropic's messages API.
package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/papercomputeco/keepsake/pkg/completion"
)

const (
	// DefaultModel is used when Config.Model is empty.
	DefaultModel = "claude-haiku-4-5-20251001"

	defaultMaxTokens = 512
	defaultTimeout   = 60 * time.Second
)

// Config holds configuration for the Anthropic completer.
type Config struct {
	// APIKey is required.
	APIKey string

	// Model defaults to DefaultModel.
	Model string

	// BaseURL overrides https://api.anthropic.com.
	BaseURL string

	// MaxTokens caps the response length. Defaults to 512.
	MaxTokens int64

	// MaxRetries is passed to the SDK. Negative keeps the SDK default.
	MaxRetries int

	// Timeout bounds each request. Defaults to 60s.
	Timeout time.Duration
}

// Completer wraps the Anthropic SDK client.
type Completer struct {
	client    sdk.Client
	model     string
	maxTokens int64
}

// NewCompleter creates an Anthropic backed completer.
func NewCompleter(c Config) (*Completer, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("anthropic: %w", completion.ErrMissingCredentials)
	}

	model := c.Model
	if model == "" {
		model = DefaultModel
	}

	maxTokens := c.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	timeout := c.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	opts := []option.RequestOption{
		option.WithAPIKey(c.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if c.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(c.BaseURL))
	}
	if c.MaxRetries >= 0 {
		opts = append(opts, option.WithMaxRetries(c.MaxRetries))
	}

	return &Completer{
		client:    sdk.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

// Complete sends prompt as a single user message and joins the text blocks
// of the reply.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: anthropic messages: %v", completion.ErrCompletion, err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("anthropic: %w", completion.ErrEmptyCompletion)
	}

	return text, nil
}

var _ completion.Completer = (*Completer)(nil)
