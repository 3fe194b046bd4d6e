package config

import "strings"

// Config represents the persistent keepsake configuration stored as
// config.toml in the .keepsake/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version         int                   `toml:"version"`
	Memory          MemoryConfig          `toml:"memory"`
	VectorStore     VectorStoreConfig     `toml:"vector_store"`
	Embedding       EmbeddingConfig       `toml:"embedding"`
	Completion      CompletionConfig      `toml:"completion"`
	ConversationLog ConversationLogConfig `toml:"conversation_log"`
	EventStream     EventStreamConfig     `toml:"event_stream"`
	API             APIConfig             `toml:"api"`
	Client          ClientConfig          `toml:"client"`
	Cache           CacheConfig           `toml:"cache"`
}

// MemoryConfig holds the orchestrator's directories and cadence tunables.
// Relative directories resolve beneath the .keepsake/ directory.
type MemoryConfig struct {
	DataDir             string `toml:"data_dir,omitempty"`
	BufferSize          uint   `toml:"buffer_size,omitempty"`
	EpisodicInterval    uint   `toml:"episodic_interval,omitempty"`
	ConsolidateInterval uint   `toml:"consolidate_interval,omitempty"`
	EpisodicCapacity    uint   `toml:"episodic_capacity,omitempty"`
	LocalMaxRecords     uint   `toml:"local_max_records,omitempty"`
}

// VectorStoreConfig selects the semantic store. Providers "qdrant", "chroma"
// and "sqlitevec" use the remote store with the local store as fallback;
// "local" skips the remote one. Target is the Qdrant gRPC host:port, the
// Chroma URL, or the sqlite-vec database file relative to the config dir.
type VectorStoreConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Collection string `toml:"collection,omitempty"`
	APIKey     string `toml:"api_key,omitempty"`
	UseTLS     bool   `toml:"use_tls,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
	APIKey     string `toml:"api_key,omitempty"`
}

// CompletionConfig holds the text completion provider used for summaries
// and episodic extraction.
type CompletionConfig struct {
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
	Model    string `toml:"model,omitempty"`
	APIKey   string `toml:"api_key,omitempty"`
}

// ConversationLogConfig selects the raw conversation log backend.
// Target is a file path for sqlite and a connection string for postgres.
type ConversationLogConfig struct {
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
}

// EventStreamConfig selects where interaction events are published.
// Brokers is a comma separated list of host:port pairs.
type EventStreamConfig struct {
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// BrokerList splits Brokers on commas and drops empty entries.
func (e EventStreamConfig) BrokerList() []string {
	var out []string
	for _, b := range strings.Split(e.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ClientConfig holds settings for CLI commands that talk to a running
// keepsake server. Values are full URLs (scheme + host + port).
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// CacheConfig holds context cache lifetimes in seconds.
type CacheConfig struct {
	SessionTTL uint `toml:"session_ttl,omitempty"`
	FastTTL    uint `toml:"fast_ttl,omitempty"`
	ProfileTTL uint `toml:"profile_ttl,omitempty"`
}
