// Package ollama implements pkg/embeddings' Embedder on Ollama's /api/embed
// endpoint.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/papercomputeco/keepsake/pkg/embeddings"
)

const (
	// DefaultEmbeddingModel is the default model used for embeddings.
	DefaultEmbeddingModel = "nomic-embed-text"

	// DefaultBaseURL is the default Ollama API URL.
	DefaultBaseURL = "http://localhost:11434"

	// DefaultTimeout bounds one embed call, including a cold model load.
	DefaultTimeout = 120 * time.Second
)

type Embedder struct {
	client *api.Client
	model  string
}

type EmbedderConfig struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// Model defaults to DefaultEmbeddingModel.
	Model string

	// Timeout defaults to DefaultTimeout.
	Timeout time.Duration
}

func NewEmbedder(cfg EmbedderConfig) (*Embedder, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid ollama url %q", baseURL)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultEmbeddingModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Embedder{
		client: api.NewClient(u, &http.Client{Timeout: timeout}),
		model:  model,
	}, nil
}

// Embed returns the embedding of text. Inputs longer than the model's
// context are truncated by the server.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	truncate := true
	resp, err := e.client.Embed(ctx, &api.EmbedRequest{
		Model:    e.model,
		Input:    text,
		Truncate: &truncate,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: ollama embed with %s: %v", embeddings.ErrEmbedding, e.model, err)
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("%w: ollama returned no embedding", embeddings.ErrEmbedding)
	}
	return resp.Embeddings[0], nil
}

func (e *Embedder) Close() error {
	return nil
}

var _ embeddings.Embedder = (*Embedder)(nil)
