package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --api-target
// on "keepsake record", "keepsake context" and "keepsake search").
type Flag struct {
	// Name is the long flag name (e.g. "listen").
	Name string

	// Shorthand is the one-letter short flag (e.g. "l"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "api.listen").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagAPIListen       = "api-listen"
	FlagAPITarget       = "api-target"
	FlagDataDir         = "data-dir"
	FlagVectorStoreProv = "vector-store-provider"
	FlagVectorStoreTgt  = "vector-store-target"
	FlagEmbeddingProv   = "embedding-provider"
	FlagEmbeddingTgt    = "embedding-target"
	FlagEmbeddingModel  = "embedding-model"
	FlagEmbeddingDims   = "embedding-dimensions"
	FlagCompletionProv  = "completion-provider"
	FlagCompletionTgt   = "completion-target"
	FlagCompletionModel = "completion-model"
	FlagConvLogProv     = "conversation-log-provider"
	FlagConvLogTgt      = "conversation-log-target"
	FlagEventStreamProv = "event-stream-provider"
	FlagEventBrokers    = "event-stream-brokers"
	FlagEventTopic      = "event-stream-topic"
	FlagBufferSize      = "buffer-size"
)

// Flags is the registry shared by every keepsake command.
var Flags = FlagSet{
	FlagAPIListen:       {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for the API server to listen on"},
	FlagAPITarget:       {Name: "api-target", Shorthand: "a", ViperKey: "client.api_target", Description: "keepsake API server URL"},
	FlagDataDir:         {Name: "data-dir", ViperKey: "memory.data_dir", Description: "Directory for profiles, episodes and local memories"},
	FlagVectorStoreProv: {Name: "vector-store-provider", ViperKey: "vector_store.provider", Description: "Semantic store (qdrant, chroma, sqlitevec, local)"},
	FlagVectorStoreTgt:  {Name: "vector-store-target", ViperKey: "vector_store.target", Description: "Vector store target (qdrant host:port, chroma URL, sqlitevec file)"},
	FlagEmbeddingProv:   {Name: "embedding-provider", ViperKey: "embedding.provider", Description: "Embedding provider (ollama, openai, hash)"},
	FlagEmbeddingTgt:    {Name: "embedding-target", ViperKey: "embedding.target", Description: "Embedding provider URL"},
	FlagEmbeddingModel:  {Name: "embedding-model", ViperKey: "embedding.model", Description: "Embedding model name"},
	FlagEmbeddingDims:   {Name: "embedding-dimensions", ViperKey: "embedding.dimensions", Description: "Embedding dimensionality"},
	FlagCompletionProv:  {Name: "completion-provider", ViperKey: "completion.provider", Description: "Completion provider (ollama, openai, anthropic, none)"},
	FlagCompletionTgt:   {Name: "completion-target", ViperKey: "completion.target", Description: "Completion provider URL"},
	FlagCompletionModel: {Name: "completion-model", ViperKey: "completion.model", Description: "Completion model name"},
	FlagConvLogProv:     {Name: "conversation-log-provider", ViperKey: "conversation_log.provider", Description: "Conversation log (sqlite, postgres, none)"},
	FlagConvLogTgt:      {Name: "conversation-log-target", ViperKey: "conversation_log.target", Description: "SQLite path or Postgres connection string"},
	FlagEventStreamProv: {Name: "event-stream-provider", ViperKey: "event_stream.provider", Description: "Interaction event stream (kafka, none)"},
	FlagEventBrokers:    {Name: "event-stream-brokers", ViperKey: "event_stream.brokers", Description: "Comma separated Kafka brokers"},
	FlagEventTopic:      {Name: "event-stream-topic", ViperKey: "event_stream.topic", Description: "Kafka topic for interaction events"},
	FlagBufferSize:      {Name: "buffer-size", ViperKey: "memory.buffer_size", Description: "Short-term conversation window size"},
}

// MemoryFlags are the registry keys of every flag that shapes the memory stack.
var MemoryFlags = []string{
	FlagDataDir,
	FlagVectorStoreProv,
	FlagVectorStoreTgt,
	FlagEmbeddingProv,
	FlagEmbeddingTgt,
	FlagEmbeddingModel,
	FlagEmbeddingDims,
	FlagCompletionProv,
	FlagCompletionTgt,
	FlagCompletionModel,
	FlagConvLogProv,
	FlagConvLogTgt,
	FlagEventStreamProv,
	FlagEventBrokers,
	FlagEventTopic,
	FlagBufferSize,
}

// AddFlags registers every flag in keys from fs on cmd, choosing the string
// or uint variant from the default's type. Values are read back via viper.
func AddFlags(cmd *cobra.Command, fs FlagSet, keys []string) {
	for _, key := range keys {
		def, ok := fs[key]
		if !ok {
			continue
		}
		if isUintKey(def.ViperKey) {
			AddUintFlag(cmd, fs, key, new(uint))
		} else {
			AddStringFlag(cmd, fs, key, new(string))
		}
	}
}

func isUintKey(viperKey string) bool {
	switch viperKey {
	case "embedding.dimensions", "memory.buffer_size":
		return true
	}
	return false
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultUint returns the default uint value for a viper key from NewDefaultConfig.
func defaultUint(viperKey string) uint {
	v := viper.New()
	setViperDefaults(v)
	return v.GetUint(viperKey)
}
