package config

const (
	defaultDataDir             = "data"
	defaultBufferSize          = 20
	defaultEpisodicInterval    = 3
	defaultConsolidateInterval = 10
	defaultEpisodicCapacity    = 100
	defaultLocalMaxRecords     = 1000

	defaultVectorProvider   = "local"
	defaultVectorTarget     = "localhost:6334"
	defaultVectorCollection = "keepsake"

	defaultOllamaTarget        = "http://localhost:11434"
	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingModel      = "nomic-embed-text"
	defaultEmbeddingDimensions = 768

	defaultCompletionProvider = "ollama"
	defaultCompletionModel    = "llama3.2"

	defaultConversationLogProvider = "sqlite"
	defaultConversationLogTarget   = "conversations.db"

	defaultEventStreamProvider = "none"
	defaultEventStreamTopic    = "keepsake.interactions"

	defaultAPIListen       = ":8765"
	defaultClientAPITarget = "http://localhost:8765"

	defaultSessionTTL = 300
	defaultFastTTL    = 180
	defaultProfileTTL = 600
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Memory: MemoryConfig{
			DataDir:             defaultDataDir,
			BufferSize:          defaultBufferSize,
			EpisodicInterval:    defaultEpisodicInterval,
			ConsolidateInterval: defaultConsolidateInterval,
			EpisodicCapacity:    defaultEpisodicCapacity,
			LocalMaxRecords:     defaultLocalMaxRecords,
		},
		VectorStore: VectorStoreConfig{
			Provider:   defaultVectorProvider,
			Target:     defaultVectorTarget,
			Collection: defaultVectorCollection,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultOllamaTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Completion: CompletionConfig{
			Provider: defaultCompletionProvider,
			Target:   defaultOllamaTarget,
			Model:    defaultCompletionModel,
		},
		ConversationLog: ConversationLogConfig{
			Provider: defaultConversationLogProvider,
			Target:   defaultConversationLogTarget,
		},
		EventStream: EventStreamConfig{
			Provider: defaultEventStreamProvider,
			Topic:    defaultEventStreamTopic,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		Cache: CacheConfig{
			SessionTTL: defaultSessionTTL,
			FastTTL:    defaultFastTTL,
			ProfileTTL: defaultProfileTTL,
		},
	}
}
