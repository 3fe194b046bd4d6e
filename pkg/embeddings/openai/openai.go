// Package openai implements pkg/embeddings' Embedder on OpenAI's embeddings API
package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/papercomputeco/keepsake/pkg/embeddings"
)

// DefaultEmbeddingModel is used when EmbedderConfig.Model is empty.
const DefaultEmbeddingModel = string(goopenai.SmallEmbedding3)

// EmbedderConfig holds configuration for the OpenAI embedder.
type EmbedderConfig struct {
	// APIKey is required.
	APIKey string

	// Model defaults to DefaultEmbeddingModel.
	Model string

	// BaseURL overrides the API root including the version segment.
	BaseURL string

	// Dimensions asks the service for shortened embeddings when positive.
	// Only the text-embedding-3 family honours it.
	Dimensions int
}

// Embedder wraps the go-openai embeddings endpoint.
type Embedder struct {
	client     *goopenai.Client
	model      goopenai.EmbeddingModel
	dimensions int
}

// NewEmbedder creates an OpenAI backed embedder.
func NewEmbedder(cfg EmbedderConfig) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai api key is required", embeddings.ErrEmbedding)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultEmbeddingModel
	}

	c := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		c.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	c.HTTPClient = &http.Client{Timeout: 60 * time.Second}

	return &Embedder{
		client:     goopenai.NewClientWithConfig(c),
		model:      goopenai.EmbeddingModel(model),
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed converts text into a vector embedding.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	req := goopenai.EmbeddingRequest{
		Input: []string{text},
		Model: e.model,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: openai embeddings: %v", embeddings.ErrEmbedding, err)
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", embeddings.ErrEmbedding)
	}

	return resp.Data[0].Embedding, nil
}

// Close releases resources held by the embedder.
func (e *Embedder) Close() error {
	return nil
}

var _ embeddings.Embedder = (*Embedder)(nil)
