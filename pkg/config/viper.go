package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/keepsake/pkg/dotdir"
)

// EnvPrefix is prepended to every environment variable viper reads.
const EnvPrefix = "KEEPSAKE"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the KEEPSAKE_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (KEEPSAKE_API_LISTEN, KEEPSAKE_VECTOR_STORE_TARGET, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: KEEPSAKE_API_LISTEN, KEEPSAKE_MEMORY_DATA_DIR, etc.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper decodes every registered key from v into a Config.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Memory: MemoryConfig{
			DataDir:             v.GetString("memory.data_dir"),
			BufferSize:          v.GetUint("memory.buffer_size"),
			EpisodicInterval:    v.GetUint("memory.episodic_interval"),
			ConsolidateInterval: v.GetUint("memory.consolidate_interval"),
			EpisodicCapacity:    v.GetUint("memory.episodic_capacity"),
			LocalMaxRecords:     v.GetUint("memory.local_max_records"),
		},
		VectorStore: VectorStoreConfig{
			Provider:   v.GetString("vector_store.provider"),
			Target:     v.GetString("vector_store.target"),
			Collection: v.GetString("vector_store.collection"),
			APIKey:     v.GetString("vector_store.api_key"),
			UseTLS:     v.GetBool("vector_store.use_tls"),
		},
		Embedding: EmbeddingConfig{
			Provider:   v.GetString("embedding.provider"),
			Target:     v.GetString("embedding.target"),
			Model:      v.GetString("embedding.model"),
			Dimensions: v.GetUint("embedding.dimensions"),
			APIKey:     v.GetString("embedding.api_key"),
		},
		Completion: CompletionConfig{
			Provider: v.GetString("completion.provider"),
			Target:   v.GetString("completion.target"),
			Model:    v.GetString("completion.model"),
			APIKey:   v.GetString("completion.api_key"),
		},
		ConversationLog: ConversationLogConfig{
			Provider: v.GetString("conversation_log.provider"),
			Target:   v.GetString("conversation_log.target"),
		},
		EventStream: EventStreamConfig{
			Provider: v.GetString("event_stream.provider"),
			Brokers:  v.GetString("event_stream.brokers"),
			Topic:    v.GetString("event_stream.topic"),
		},
		API: APIConfig{
			Listen: v.GetString("api.listen"),
		},
		Client: ClientConfig{
			APITarget: v.GetString("client.api_target"),
		},
		Cache: CacheConfig{
			SessionTTL: v.GetUint("cache.session_ttl"),
			FastTTL:    v.GetUint("cache.fast_ttl"),
			ProfileTTL: v.GetUint("cache.profile_ttl"),
		},
	}
}

// setViperDefaults registers every key's typed default from
// NewDefaultConfig so AutomaticEnv can see it.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)
	for _, k := range keyRegistry {
		v.SetDefault(k.name, k.value(d))
	}
}
