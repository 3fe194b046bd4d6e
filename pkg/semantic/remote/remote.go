// Package remote implements semantic.Store on a vectordb.Index. Each user
// maps to a namespace of the index and every read is scoped to it.
package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/keepsake/pkg/embeddings"
	"github.com/papercomputeco/keepsake/pkg/logger"
	"github.com/papercomputeco/keepsake/pkg/semantic"
	"github.com/papercomputeco/keepsake/pkg/vectordb"
)

// Config holds configuration for the remote store.
type Config struct {
	// Index is the vector database. Required.
	Index vectordb.Index

	// Embedder produces fixed-length vectors. Required; its dimension is
	// the index dimension.
	Embedder *embeddings.Adapter

	// Now defaults to time.Now.
	Now func() time.Time
}

// Store implements semantic.Store.
type Store struct {
	index    vectordb.Index
	embedder *embeddings.Adapter
	now      func() time.Time
	logger   *slog.Logger
}

// NewStore verifies the index exists, creating it with the embedder's
// dimension and the cosine metric when missing. Any failure returns an
// error and no store.
func NewStore(ctx context.Context, c Config, log *slog.Logger) (*Store, error) {
	if c.Index == nil {
		return nil, errors.New("remote store: index is required")
	}
	if c.Embedder == nil {
		return nil, errors.New("remote store: embedder is required")
	}
	if log == nil {
		log = logger.Nop()
	}

	now := c.Now
	if now == nil {
		now = time.Now
	}

	exists, err := c.Index.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking vector index: %w", err)
	}
	if !exists {
		log.Info("vector index missing, creating it", "dimensions", c.Embedder.Dimensions())
		if err := c.Index.Create(ctx, c.Embedder.Dimensions(), vectordb.MetricCosine); err != nil {
			return nil, fmt.Errorf("creating vector index: %w", err)
		}
	}

	return &Store{
		index:    c.Index,
		embedder: c.Embedder,
		now:      now,
		logger:   log,
	}, nil
}

// Store embeds text and upserts it into the user's namespace. When the
// embedding service fails the record is still written with the zero vector
// and the id is returned alongside the embedding error.
func (s *Store) Store(ctx context.Context, userID, text string, metadata map[string]any) (string, error) {
	if err := semantic.Validate(userID); err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", semantic.ErrEmptyText
	}

	vec, embedErr := s.embedder.Embed(ctx, text)

	payload := maps.Clone(metadata)
	if payload == nil {
		payload = map[string]any{}
	}
	payload[semantic.MetaText] = text
	payload[semantic.MetaTimestamp] = s.now().UTC().Format(time.RFC3339Nano)
	payload[semantic.MetaUser] = userID

	id := uuid.NewString()
	err := s.index.Upsert(ctx, semantic.Namespace(userID), []vectordb.Point{{
		ID:       id,
		Vector:   vec,
		Metadata: payload,
	}})
	if err != nil {
		return "", fmt.Errorf("storing memory: %w", err)
	}

	if embedErr != nil {
		return id, embedErr
	}
	return id, nil
}

// Search embeds query and returns the index's matches in its own order.
// A query that yields the zero vector carries no signal and returns no
// results.
func (s *Store) Search(ctx context.Context, userID, query string, topK int) ([]semantic.Result, error) {
	if err := semantic.Validate(userID); err != nil {
		return nil, err
	}
	if topK <= 0 || strings.TrimSpace(query) == "" {
		return []semantic.Result{}, nil
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return []semantic.Result{}, err
	}
	if embeddings.IsZero(vec) {
		return []semantic.Result{}, nil
	}

	matches, err := s.index.Query(ctx, semantic.Namespace(userID), vec, topK)
	if err != nil {
		return nil, fmt.Errorf("searching memories: %w", err)
	}

	results := make([]semantic.Result, 0, len(matches))
	for _, m := range matches {
		text, _ := m.Metadata[semantic.MetaText].(string)
		results = append(results, semantic.Result{
			ID:       m.ID,
			Text:     text,
			Score:    float64(m.Score),
			Metadata: m.Metadata,
		})
	}

	return results, nil
}

func (s *Store) Stats(ctx context.Context, userID string) (semantic.Stats, error) {
	if err := semantic.Validate(userID); err != nil {
		return semantic.Stats{}, err
	}

	stats, err := s.index.DescribeStats(ctx, semantic.Namespace(userID))
	if err != nil {
		return semantic.Stats{}, fmt.Errorf("describing namespace: %w", err)
	}
	return semantic.Stats{Count: stats.Count}, nil
}

func (s *Store) DeleteAll(ctx context.Context, userID string) error {
	if err := semantic.Validate(userID); err != nil {
		return err
	}

	if err := s.index.DeleteNamespace(ctx, semantic.Namespace(userID)); err != nil {
		return fmt.Errorf("deleting namespace: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return errors.Join(s.index.Close(), s.embedder.Close())
}

var _ semantic.Store = (*Store)(nil)
