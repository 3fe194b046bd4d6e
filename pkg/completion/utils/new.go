// Package completionutils is the completion utility package
package completionutils

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/papercomputeco/keepsake/pkg/completion"
	"github.com/papercomputeco/keepsake/pkg/completion/anthropic"
	"github.com/papercomputeco/keepsake/pkg/completion/ollama"
	"github.com/papercomputeco/keepsake/pkg/completion/openai"
	"github.com/papercomputeco/keepsake/pkg/credentials"
	"github.com/papercomputeco/keepsake/pkg/logger"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
	ProviderNone      = "none"
)

type NewCompleterOpts struct {
	ProviderType string
	TargetURL    string
	Model        string

	// APIKey takes precedence over Credentials and the environment.
	APIKey      string
	Credentials *credentials.Manager

	Logger *slog.Logger
}

// NewCompleter builds the configured completer. A "none" (or empty) provider
// returns a nil Completer; callers then use their deterministic fallbacks.
// When a hosted provider has no resolvable API key the factory falls back to
// a local Ollama completer.
func NewCompleter(o *NewCompleterOpts) (completion.Completer, error) {
	log := o.Logger
	if log == nil {
		log = logger.Nop()
	}

	provider := strings.ToLower(o.ProviderType)
	model := o.Model
	target := o.TargetURL

	var apiKey string
	if provider == ProviderOpenAI || provider == ProviderAnthropic {
		apiKey = credentials.Resolve(o.Credentials, provider, o.APIKey)
		if apiKey == "" {
			log.Warn("no API key found for completion provider, falling back to ollama",
				"provider", provider,
			)
			provider = ProviderOllama
			model = ""
			target = ""
		}
	}

	switch provider {
	case ProviderNone, "":
		return nil, nil

	case ProviderOpenAI:
		return openai.NewCompleter(openai.Config{
			APIKey:  apiKey,
			Model:   model,
			BaseURL: target,
		})

	case ProviderAnthropic:
		return anthropic.NewCompleter(anthropic.Config{
			APIKey:     apiKey,
			Model:      model,
			BaseURL:    target,
			MaxRetries: -1,
		})

	case ProviderOllama:
		return ollama.NewCompleter(ollama.Config{
			BaseURL: target,
			Model:   model,
		})

	default:
		return nil, fmt.Errorf("unsupported completion provider: %s", o.ProviderType)
	}
}
