// Package credentials stores provider API keys in credentials.toml inside the
// .keepsake/ directory and resolves keys for the completion, embedding and
// vector store clients.
package credentials

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/keepsake/pkg/dotdir"
	"github.com/papercomputeco/keepsake/pkg/utils"
)

const (
	credentialsFile = "credentials.toml"

	currentVersion = 0
)

var (
	// ErrUnsupportedProvider is returned when storing a key for a provider
	// that keepsake never sends keys to.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrEmptyKey is returned when storing a blank key.
	ErrEmptyKey = errors.New("API key cannot be empty")
)

// providers lists every provider that accepts a key, in display order, with
// the environment variable read as the last resort.
var providers = []struct {
	name   string
	envVar string
}{
	{"anthropic", "ANTHROPIC_API_KEY"},
	{"openai", "OPENAI_API_KEY"},
	{"qdrant", "QDRANT_API_KEY"},
	{"chroma", "CHROMA_API_KEY"},
}

// Source says where a resolved key came from.
type Source string

const (
	SourceNone     Source = ""
	SourceExplicit Source = "config"
	SourceFile     Source = "credentials.toml"
	SourceEnv      Source = "env"
)

// Credentials is the on-disk shape of credentials.toml. Keys are stored per
// provider name as listed in SupportedProviders.
type Credentials struct {
	Version   int                           `toml:"version"`
	Providers map[string]ProviderCredential `toml:"providers"`
}

// ProviderCredential is one [providers.<name>] table.
type ProviderCredential struct {
	APIKey string `toml:"api_key"`
}

// Manager reads and writes one credentials.toml.
type Manager struct {
	path string
}

// NewManager targets credentials.toml in override, or in the directory
// dotdir resolves when override is empty.
func NewManager(override string) (*Manager, error) {
	dir, err := dotdir.NewManager().Target(override)
	if err != nil {
		return nil, err
	}
	return &Manager{path: filepath.Join(dir, credentialsFile)}, nil
}

// GetTarget returns the path of credentials.toml.
func (m *Manager) GetTarget() string {
	return m.path
}

// Load parses credentials.toml. A missing file yields empty credentials.
func (m *Manager) Load() (*Credentials, error) {
	creds := &Credentials{Version: currentVersion}

	data, err := os.ReadFile(m.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading credentials: %w", err)
	default:
		if err := toml.Unmarshal(data, creds); err != nil {
			return nil, fmt.Errorf("parsing credentials %s: %w", m.path, err)
		}
	}

	if creds.Providers == nil {
		creds.Providers = map[string]ProviderCredential{}
	}
	return creds, nil
}

// Save atomically replaces credentials.toml, readable by the owner only.
func (m *Manager) Save(creds *Credentials) error {
	if creds == nil {
		return errors.New("cannot save nil credentials")
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(creds); err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}
	if err := utils.WriteFileAtomic(m.path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}

// update loads, applies fn and saves when fn reports a change.
func (m *Manager) update(fn func(c *Credentials) bool) error {
	creds, err := m.Load()
	if err != nil {
		return err
	}
	if !fn(creds) {
		return nil
	}
	return m.Save(creds)
}

// SetKey stores key for provider.
func (m *Manager) SetKey(provider, key string) error {
	if !IsSupportedProvider(provider) {
		return fmt.Errorf("%w: %q", ErrUnsupportedProvider, provider)
	}
	if key == "" {
		return ErrEmptyKey
	}
	return m.update(func(c *Credentials) bool {
		c.Providers[provider] = ProviderCredential{APIKey: key}
		return true
	})
}

// GetKey returns the stored key for provider, or "".
func (m *Manager) GetKey(provider string) (string, error) {
	creds, err := m.Load()
	if err != nil {
		return "", err
	}
	return creds.Providers[provider].APIKey, nil
}

// RemoveKey deletes the stored key for provider. Removing an absent key
// leaves the file untouched.
func (m *Manager) RemoveKey(provider string) error {
	return m.update(func(c *Credentials) bool {
		if _, ok := c.Providers[provider]; !ok {
			return false
		}
		delete(c.Providers, provider)
		return true
	})
}

// ListProviders returns the sorted names of providers with stored keys.
func (m *Manager) ListProviders() ([]string, error) {
	creds, err := m.Load()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(creds.Providers))
	for name := range creds.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Lookup resolves the key for provider from the explicit value, then the
// credentials file when m is non-nil, then the provider's environment
// variable, and reports which one supplied it.
func Lookup(m *Manager, provider, explicit string) (string, Source) {
	if explicit != "" {
		return explicit, SourceExplicit
	}

	if m != nil {
		if key, err := m.GetKey(provider); err == nil && key != "" {
			return key, SourceFile
		}
	}

	if env := EnvVarForProvider(provider); env != "" {
		if key := os.Getenv(env); key != "" {
			return key, SourceEnv
		}
	}

	return "", SourceNone
}

// Resolve is Lookup without the source.
func Resolve(m *Manager, provider, explicit string) string {
	key, _ := Lookup(m, provider, explicit)
	return key
}

// Mask hides all but the last four characters of key.
func Mask(key string) string {
	if key == "" {
		return ""
	}
	r := []rune(key)
	if len(r) <= 4 {
		return "****"
	}
	return "****" + string(r[len(r)-4:])
}

// EnvVarForProvider returns the environment variable read for provider, or
// "" for providers without keys.
func EnvVarForProvider(provider string) string {
	for _, p := range providers {
		if p.name == provider {
			return p.envVar
		}
	}
	return ""
}

// SupportedProviders returns the providers that accept API keys.
func SupportedProviders() []string {
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.name
	}
	return names
}

// IsSupportedProvider reports whether provider accepts an API key.
func IsSupportedProvider(provider string) bool {
	return slices.Contains(SupportedProviders(), provider)
}
