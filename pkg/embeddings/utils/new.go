// Package embeddingutils is the embeddings utility package
package embeddingutils

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/papercomputeco/keepsake/pkg/credentials"
	"github.com/papercomputeco/keepsake/pkg/embeddings"
	"github.com/papercomputeco/keepsake/pkg/embeddings/hash"
	"github.com/papercomputeco/keepsake/pkg/embeddings/ollama"
	"github.com/papercomputeco/keepsake/pkg/embeddings/openai"
	"github.com/papercomputeco/keepsake/pkg/logger"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderHash   = "hash"
)

type NewEmbedderOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	Dimensions   int

	APIKey      string
	Credentials *credentials.Manager
}

func NewEmbedder(o *NewEmbedderOpts) (embeddings.Embedder, error) {
	switch strings.ToLower(o.ProviderType) {
	case ProviderOllama:
		return ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL: o.TargetURL,
			Model:   o.Model,
		})
	case ProviderOpenAI:
		return openai.NewEmbedder(openai.EmbedderConfig{
			APIKey:     credentials.Resolve(o.Credentials, ProviderOpenAI, o.APIKey),
			Model:      o.Model,
			BaseURL:    o.TargetURL,
			Dimensions: o.Dimensions,
		})
	case ProviderHash:
		return hash.NewEmbedder(o.Dimensions), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", o.ProviderType)
	}
}

// NewAdapter builds the configured embedder and pins it to o.Dimensions.
func NewAdapter(o *NewEmbedderOpts, log *slog.Logger) (*embeddings.Adapter, error) {
	if log == nil {
		log = logger.Nop()
	}

	e, err := NewEmbedder(o)
	if err != nil {
		return nil, err
	}

	return embeddings.NewAdapter(e, o.Dimensions, log.With("embedding_provider", o.ProviderType))
}
