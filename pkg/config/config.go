package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/keepsake/pkg/dotdir"
	"github.com/papercomputeco/keepsake/pkg/utils"
)

const (
	configFile = "config.toml"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

// Configer reads and writes one config.toml.
type Configer struct {
	targetPath string
}

// NewConfiger targets config.toml in the resolved .keepsake/ directory. The
// file itself need not exist.
func NewConfiger(override string) (*Configer, error) {
	target, err := dotdir.NewManager().Target(override)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(target, configFile)
	if _, err := os.Stat(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return &Configer{targetPath: path}, nil
}

func (c *Configer) GetTarget() string {
	return c.targetPath
}

// Exists reports whether config.toml has been written.
func (c *Configer) Exists() bool {
	info, err := os.Stat(c.targetPath)
	return err == nil && info.Mode().IsRegular()
}

// LoadConfig reads config.toml and fills unset fields from NewDefaultConfig.
// A missing file yields the defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := ParseConfigTOML(data)
	if err != nil {
		return nil, err
	}

	// Merge in defaults: fill in any zero-value fields from the loaded config
	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults fills zero-value fields in cfg with values from DefaultConfig().
// Booleans and API keys have no default and are left alone.
func applyDefaults(cfg *Config) {
	d := NewDefaultConfig()

	if cfg.Version == 0 {
		cfg.Version = d.Version
	}

	fillString(&cfg.Memory.DataDir, d.Memory.DataDir)
	fillUint(&cfg.Memory.BufferSize, d.Memory.BufferSize)
	fillUint(&cfg.Memory.EpisodicInterval, d.Memory.EpisodicInterval)
	fillUint(&cfg.Memory.ConsolidateInterval, d.Memory.ConsolidateInterval)
	fillUint(&cfg.Memory.EpisodicCapacity, d.Memory.EpisodicCapacity)
	fillUint(&cfg.Memory.LocalMaxRecords, d.Memory.LocalMaxRecords)

	fillString(&cfg.VectorStore.Provider, d.VectorStore.Provider)
	fillString(&cfg.VectorStore.Target, d.VectorStore.Target)
	fillString(&cfg.VectorStore.Collection, d.VectorStore.Collection)

	fillString(&cfg.Embedding.Provider, d.Embedding.Provider)
	fillString(&cfg.Embedding.Target, d.Embedding.Target)
	fillString(&cfg.Embedding.Model, d.Embedding.Model)
	fillUint(&cfg.Embedding.Dimensions, d.Embedding.Dimensions)

	fillString(&cfg.Completion.Provider, d.Completion.Provider)
	fillString(&cfg.Completion.Target, d.Completion.Target)
	fillString(&cfg.Completion.Model, d.Completion.Model)

	fillString(&cfg.ConversationLog.Provider, d.ConversationLog.Provider)
	fillString(&cfg.ConversationLog.Target, d.ConversationLog.Target)

	fillString(&cfg.EventStream.Provider, d.EventStream.Provider)
	fillString(&cfg.EventStream.Topic, d.EventStream.Topic)

	fillString(&cfg.API.Listen, d.API.Listen)
	fillString(&cfg.Client.APITarget, d.Client.APITarget)

	fillUint(&cfg.Cache.SessionTTL, d.Cache.SessionTTL)
	fillUint(&cfg.Cache.FastTTL, d.Cache.FastTTL)
	fillUint(&cfg.Cache.ProfileTTL, d.Cache.ProfileTTL)
}

func fillString(v *string, def string) {
	if *v == "" {
		*v = def
	}
}

func fillUint(v *uint, def uint) {
	if *v == 0 {
		*v = def
	}
}

// SaveConfig persists the configuration to config.toml in the target .keepsake/ directory.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := utils.WriteFileAtomic(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
// Returns an error if the key is not a valid config key.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, err := lookupKey(key)
	if err != nil {
		return err
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
// Returns an error if the key is not a valid config key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, err := lookupKey(key)
	if err != nil {
		return "", err
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}

// PresetConfig returns a Config with sane defaults for the named provider preset.
// Supported presets: "openai", "anthropic", "ollama", "offline".
// Returns an error if the preset name is not recognized.
func PresetConfig(name string) (*Config, error) {
	cfg := NewDefaultConfig()

	switch strings.ToLower(name) {
	case "openai":
		cfg.Completion = CompletionConfig{Provider: "openai", Model: "gpt-4o-mini"}
		cfg.Embedding = EmbeddingConfig{Provider: "openai", Model: "text-embedding-3-small", Dimensions: 1536}

	case "anthropic":
		cfg.Completion = CompletionConfig{Provider: "anthropic", Model: "claude-3-5-haiku-latest"}

	case "ollama":
		// defaults

	case "offline":
		cfg.Completion = CompletionConfig{Provider: "none"}
		cfg.Embedding = EmbeddingConfig{Provider: "hash", Dimensions: 256}
		cfg.VectorStore.Provider = "local"

	default:
		return nil, fmt.Errorf("unknown preset: %q (available: %s)", name, strings.Join(ValidPresetNames(), ", "))
	}

	return cfg, nil
}

// ValidPresetNames returns the list of recognized preset names.
func ValidPresetNames() []string {
	return []string{"openai", "anthropic", "ollama", "offline"}
}

// ParseConfigTOML parses raw TOML bytes into a Config.
// Returns an error if the version field is present and not equal to CurrentConfigVersion.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	return cfg, nil
}

// ResolvePath joins a relative p onto base. Absolute paths and an empty
// base leave p unchanged.
func ResolvePath(base, p string) string {
	if p == "" || base == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
