package config

import (
	"fmt"
	"strconv"
)

// configKey maps a dotted key name to accessors on *Config. value returns
// the typed field for viper defaults.
type configKey struct {
	name  string
	get   func(c *Config) string
	set   func(c *Config, v string) error
	value func(c *Config) any
}

func stringKey(name string, field func(c *Config) *string) configKey {
	return configKey{
		name:  name,
		get:   func(c *Config) string { return *field(c) },
		set:   func(c *Config, v string) error { *field(c) = v; return nil },
		value: func(c *Config) any { return *field(c) },
	}
}

// uintKey renders zero as unset.
func uintKey(name string, field func(c *Config) *uint) configKey {
	return configKey{
		name: name,
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 0)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
		value: func(c *Config) any { return *field(c) },
	}
}

func boolKey(name string, field func(c *Config) *bool) configKey {
	return configKey{
		name: name,
		get:  func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = b
			return nil
		},
		value: func(c *Config) any { return *field(c) },
	}
}

// keyRegistry lists every supported key in config.toml section order.
var keyRegistry = []configKey{
	stringKey("memory.data_dir", func(c *Config) *string { return &c.Memory.DataDir }),
	uintKey("memory.buffer_size", func(c *Config) *uint { return &c.Memory.BufferSize }),
	uintKey("memory.episodic_interval", func(c *Config) *uint { return &c.Memory.EpisodicInterval }),
	uintKey("memory.consolidate_interval", func(c *Config) *uint { return &c.Memory.ConsolidateInterval }),
	uintKey("memory.episodic_capacity", func(c *Config) *uint { return &c.Memory.EpisodicCapacity }),
	uintKey("memory.local_max_records", func(c *Config) *uint { return &c.Memory.LocalMaxRecords }),

	stringKey("vector_store.provider", func(c *Config) *string { return &c.VectorStore.Provider }),
	stringKey("vector_store.target", func(c *Config) *string { return &c.VectorStore.Target }),
	stringKey("vector_store.collection", func(c *Config) *string { return &c.VectorStore.Collection }),
	stringKey("vector_store.api_key", func(c *Config) *string { return &c.VectorStore.APIKey }),
	boolKey("vector_store.use_tls", func(c *Config) *bool { return &c.VectorStore.UseTLS }),

	stringKey("embedding.provider", func(c *Config) *string { return &c.Embedding.Provider }),
	stringKey("embedding.target", func(c *Config) *string { return &c.Embedding.Target }),
	stringKey("embedding.model", func(c *Config) *string { return &c.Embedding.Model }),
	uintKey("embedding.dimensions", func(c *Config) *uint { return &c.Embedding.Dimensions }),
	stringKey("embedding.api_key", func(c *Config) *string { return &c.Embedding.APIKey }),

	stringKey("completion.provider", func(c *Config) *string { return &c.Completion.Provider }),
	stringKey("completion.target", func(c *Config) *string { return &c.Completion.Target }),
	stringKey("completion.model", func(c *Config) *string { return &c.Completion.Model }),
	stringKey("completion.api_key", func(c *Config) *string { return &c.Completion.APIKey }),

	stringKey("conversation_log.provider", func(c *Config) *string { return &c.ConversationLog.Provider }),
	stringKey("conversation_log.target", func(c *Config) *string { return &c.ConversationLog.Target }),

	stringKey("event_stream.provider", func(c *Config) *string { return &c.EventStream.Provider }),
	stringKey("event_stream.brokers", func(c *Config) *string { return &c.EventStream.Brokers }),
	stringKey("event_stream.topic", func(c *Config) *string { return &c.EventStream.Topic }),

	stringKey("api.listen", func(c *Config) *string { return &c.API.Listen }),
	stringKey("client.api_target", func(c *Config) *string { return &c.Client.APITarget }),

	uintKey("cache.session_ttl", func(c *Config) *uint { return &c.Cache.SessionTTL }),
	uintKey("cache.fast_ttl", func(c *Config) *uint { return &c.Cache.FastTTL }),
	uintKey("cache.profile_ttl", func(c *Config) *uint { return &c.Cache.ProfileTTL }),
}

var configKeys = func() map[string]configKey {
	m := make(map[string]configKey, len(keyRegistry))
	for _, k := range keyRegistry {
		m[k.name] = k
	}
	return m
}()

// ValidConfigKeys returns every supported key in config.toml section order.
func ValidConfigKeys() []string {
	names := make([]string, len(keyRegistry))
	for i, k := range keyRegistry {
		names[i] = k.name
	}
	return names
}

// IsValidConfigKey reports whether key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

func lookupKey(key string) (configKey, error) {
	k, ok := configKeys[key]
	if !ok {
		return configKey{}, fmt.Errorf("unknown config key: %q", key)
	}
	return k, nil
}
