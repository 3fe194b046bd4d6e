// Package memoryutils builds a fully wired memory Orchestrator from a
// keepsake configuration.
package memoryutils

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	completionutils "github.com/papercomputeco/keepsake/pkg/completion/utils"
	"github.com/papercomputeco/keepsake/pkg/config"
	convlogutils "github.com/papercomputeco/keepsake/pkg/convlog/utils"
	"github.com/papercomputeco/keepsake/pkg/credentials"
	"github.com/papercomputeco/keepsake/pkg/dotdir"
	embeddingutils "github.com/papercomputeco/keepsake/pkg/embeddings/utils"
	"github.com/papercomputeco/keepsake/pkg/eventstream"
	"github.com/papercomputeco/keepsake/pkg/eventstream/kafka"
	"github.com/papercomputeco/keepsake/pkg/eventstream/nop"
	"github.com/papercomputeco/keepsake/pkg/logger"
	"github.com/papercomputeco/keepsake/pkg/memory"
	"github.com/papercomputeco/keepsake/pkg/profile"
	"github.com/papercomputeco/keepsake/pkg/semantic"
	"github.com/papercomputeco/keepsake/pkg/semantic/local"
	"github.com/papercomputeco/keepsake/pkg/semantic/remote"
	"github.com/papercomputeco/keepsake/pkg/vectordb"
	"github.com/papercomputeco/keepsake/pkg/vectordb/chroma"
	"github.com/papercomputeco/keepsake/pkg/vectordb/qdrant"
	"github.com/papercomputeco/keepsake/pkg/vectordb/sqlitevec"
	"github.com/papercomputeco/keepsake/pkg/worker"
)

const (
	VectorProviderQdrant    = "qdrant"
	VectorProviderChroma    = "chroma"
	VectorProviderSQLiteVec = "sqlitevec"
	VectorProviderLocal     = "local"

	EventProviderKafka = "kafka"
	EventProviderNone  = "none"

	sqliteVecFile = "vectors.db"
)

// ErrMissingCredentials is returned when the remote vector store has no
// resolvable API key while one is required.
var ErrMissingCredentials = errors.New("missing vector store credentials")

type NewOrchestratorOpts struct {
	Config *config.Config

	// BaseDir resolves relative paths in Config. Usually the .keepsake/
	// directory.
	BaseDir string

	// Credentials resolves provider API keys. Optional.
	Credentials *credentials.Manager

	// RequireVectorKey makes a missing qdrant API key a remote store error.
	RequireVectorKey bool

	Logger *slog.Logger
}

// Stack is an Orchestrator plus the resources it was built on.
type Stack struct {
	Orchestrator *memory.Orchestrator
	Pool         *worker.Pool
}

// Close stops the orchestrator first so no further events are produced,
// then drains the event pool.
func (s *Stack) Close() error {
	var errs []error
	if s.Orchestrator != nil {
		errs = append(errs, s.Orchestrator.Close())
	}
	if s.Pool != nil {
		errs = append(errs, s.Pool.Close())
	}
	return errors.Join(errs...)
}

// NewOrchestrator builds every collaborator named in o.Config. The vector
// store is selected once: the configured vector database when reachable,
// the local store otherwise.
func NewOrchestrator(ctx context.Context, o *NewOrchestratorOpts) (*Stack, error) {
	if o == nil || o.Config == nil {
		return nil, errors.New("memory stack: config is required")
	}
	cfg := o.Config
	log := o.Logger
	if log == nil {
		log = logger.Nop()
	}

	dataDir := config.ResolvePath(o.BaseDir, cfg.Memory.DataDir)

	completer, err := completionutils.NewCompleter(&completionutils.NewCompleterOpts{
		ProviderType: cfg.Completion.Provider,
		TargetURL:    cfg.Completion.Target,
		Model:        cfg.Completion.Model,
		APIKey:       cfg.Completion.APIKey,
		Credentials:  o.Credentials,
		Logger:       log,
	})
	if err != nil {
		return nil, fmt.Errorf("building completer: %w", err)
	}

	store, usingRemote, err := memory.SelectStore(ctx,
		remoteFactory(o, log),
		localFactory(filepath.Join(dataDir, dotdir.MemoriesDir), int(cfg.Memory.LocalMaxRecords), log),
		log,
	)
	if err != nil {
		return nil, err
	}

	profiles, err := profile.NewStore(profile.Config{
		ProfileDir:  filepath.Join(dataDir, dotdir.ProfilesDir),
		EpisodicDir: filepath.Join(dataDir, dotdir.EpisodesDir),
	}, log.With("component", "profile"))
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	convlog, err := convlogutils.NewLog(ctx, &convlogutils.NewLogOpts{
		ProviderType: cfg.ConversationLog.Provider,
		Target:       convlogTarget(o.BaseDir, cfg.ConversationLog),
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("building conversation log: %w", err)
	}

	publisher, err := newPublisher(cfg.EventStream, log)
	if err != nil {
		_ = store.Close()
		_ = convlog.Close()
		return nil, err
	}

	pool, err := worker.NewPool(&worker.Config{
		Publisher: publisher,
		Logger:    log.With("component", "events"),
	})
	if err != nil {
		_ = store.Close()
		_ = convlog.Close()
		return nil, err
	}

	orch, err := memory.New(memory.Config{
		Store:               store,
		UsingRemoteStore:    usingRemote,
		Profiles:            profiles,
		Completer:           completer,
		ConversationLog:     convlog,
		Events:              pool,
		BufferSize:          int(cfg.Memory.BufferSize),
		EpisodicInterval:    int(cfg.Memory.EpisodicInterval),
		ConsolidateInterval: int(cfg.Memory.ConsolidateInterval),
		EpisodicCapacity:    int(cfg.Memory.EpisodicCapacity),
		SessionTTL:          seconds(cfg.Cache.SessionTTL),
		FastTTL:             seconds(cfg.Cache.FastTTL),
		ProfileTTL:          seconds(cfg.Cache.ProfileTTL),
		Logger:              log,
	})
	if err != nil {
		_ = store.Close()
		_ = convlog.Close()
		_ = pool.Close()
		return nil, err
	}

	log.Info("memory stack ready",
		"data_dir", dataDir,
		"remote_store", usingRemote,
		"completion", completer != nil,
		"events", cfg.EventStream.Provider,
	)

	return &Stack{Orchestrator: orch, Pool: pool}, nil
}

func remoteFactory(o *NewOrchestratorOpts, log *slog.Logger) memory.StoreFactory {
	vs := o.Config.VectorStore
	switch strings.ToLower(vs.Provider) {
	case VectorProviderQdrant, VectorProviderChroma, VectorProviderSQLiteVec:
	default:
		return nil
	}

	return func(ctx context.Context) (semantic.Store, error) {
		index, err := newIndex(o, log)
		if err != nil {
			return nil, err
		}

		emb := o.Config.Embedding
		adapter, err := embeddingutils.NewAdapter(&embeddingutils.NewEmbedderOpts{
			ProviderType: emb.Provider,
			TargetURL:    emb.Target,
			Model:        emb.Model,
			Dimensions:   int(emb.Dimensions),
			APIKey:       emb.APIKey,
			Credentials:  o.Credentials,
		}, log)
		if err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("building embedder: %w", err)
		}

		store, err := remote.NewStore(ctx, remote.Config{Index: index, Embedder: adapter}, log.With("component", "remote_store"))
		if err != nil {
			_ = index.Close()
			_ = adapter.Close()
			return nil, err
		}
		return store, nil
	}
}

func newIndex(o *NewOrchestratorOpts, log *slog.Logger) (vectordb.Index, error) {
	vs := o.Config.VectorStore
	provider := strings.ToLower(vs.Provider)

	switch provider {
	case VectorProviderQdrant:
		host, port, err := splitTarget(vs.Target)
		if err != nil {
			return nil, err
		}

		apiKey := credentials.Resolve(o.Credentials, "qdrant", vs.APIKey)
		if apiKey == "" && o.RequireVectorKey {
			return nil, ErrMissingCredentials
		}

		return qdrant.New(qdrant.Config{
			Host:       host,
			Port:       port,
			APIKey:     apiKey,
			UseTLS:     vs.UseTLS,
			Collection: vs.Collection,
		}, log.With("component", "qdrant"))

	case VectorProviderChroma:
		return chroma.New(chroma.Config{
			URL:        vs.Target,
			Collection: vs.Collection,
			APIKey:     credentials.Resolve(o.Credentials, "chroma", vs.APIKey),
		}, log.With("component", "chroma"))

	case VectorProviderSQLiteVec:
		target := vs.Target
		if target == "" || target == config.NewDefaultConfig().VectorStore.Target {
			target = sqliteVecFile
		}
		return sqlitevec.New(sqlitevec.Config{
			DBPath: config.ResolvePath(o.BaseDir, target),
		}, log.With("component", "sqlitevec"))

	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", vs.Provider)
	}
}

func localFactory(dir string, maxRecords int, log *slog.Logger) memory.StoreFactory {
	return func(context.Context) (semantic.Store, error) {
		return local.NewStore(local.Config{Dir: dir, MaxRecords: maxRecords}, log.With("component", "local_store"))
	}
}

func newPublisher(c config.EventStreamConfig, log *slog.Logger) (eventstream.Publisher, error) {
	switch strings.ToLower(c.Provider) {
	case "", EventProviderNone:
		return nop.NewPublisher(log.With("component", "event_stream")), nil
	case EventProviderKafka:
		return kafka.NewPublisher(kafka.Config{
			Brokers: c.BrokerList(),
			Topic:   c.Topic,
		}, log.With("component", "kafka"))
	default:
		return nil, fmt.Errorf("unsupported event stream provider: %s", c.Provider)
	}
}

// splitTarget parses "host" or "host:port".
func splitTarget(target string) (string, int, error) {
	if target == "" {
		return "", 0, errors.New("vector store target is required")
	}
	if !strings.Contains(target, ":") {
		return target, 0, nil
	}

	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		return "", 0, fmt.Errorf("parsing vector store target %q: %w", target, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("parsing vector store port %q: %w", portStr, err)
	}
	return host, port, nil
}

func convlogTarget(base string, c config.ConversationLogConfig) string {
	if strings.EqualFold(c.Provider, "sqlite") {
		return config.ResolvePath(base, c.Target)
	}
	return c.Target
}

func seconds(n uint) time.Duration {
	return time.Duration(n) * time.Second
}
