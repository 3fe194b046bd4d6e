// Package sqlitevec provides a vectordb.Index stored in a single SQLite file.
// Vectors are kept as sqlite-vec float32 blobs next to their namespace and
// payload, and queries rank a namespace with vec_distance_cosine.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/keepsake/pkg/logger"
	"github.com/papercomputeco/keepsake/pkg/vectordb"
)

const schema = `
CREATE TABLE IF NOT EXISTS vec_meta (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	dimensions INTEGER NOT NULL,
	metric TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS vec_points (
	namespace TEXT NOT NULL,
	point_id TEXT NOT NULL,
	embedding BLOB NOT NULL,
	metadata TEXT NOT NULL DEFAULT '{}',
	UNIQUE (namespace, point_id)
);
CREATE INDEX IF NOT EXISTS idx_vec_points_namespace ON vec_points(namespace);
`

// Config holds configuration for the sqlite-vec index.
type Config struct {
	// DBPath is the SQLite database file. ":memory:" keeps it in process.
	DBPath string
}

// Index implements vectordb.Index.
type Index struct {
	db     *sql.DB
	logger *slog.Logger

	mu         sync.Mutex
	dimensions int
}

// New opens the database at c.DBPath and checks that sqlite-vec is loaded.
// The schema is not created until Create.
func New(c Config, log *slog.Logger) (*Index, error) {
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, errors.New("sqlite-vec database path is required")
	}
	if log == nil {
		log = logger.Nop()
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", vectordb.ErrConnection, c.DBPath, err)
	}
	db.SetMaxOpenConns(1)

	var version string
	if err := db.QueryRow("SELECT vec_version()").Scan(&version); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: sqlite-vec not available: %v", vectordb.ErrConnection, err)
	}

	log.Debug("opened sqlite-vec index", "db_path", c.DBPath, "vec_version", version)

	return &Index{db: db, logger: log}, nil
}

func (i *Index) Exists(ctx context.Context) (bool, error) {
	dims, err := i.loadDimensions(ctx)
	if err != nil {
		return false, err
	}
	return dims > 0, nil
}

func (i *Index) Create(ctx context.Context, dimensions int, metric vectordb.Metric) error {
	if dimensions <= 0 {
		return fmt.Errorf("creating index: dimensions must be positive, got %d", dimensions)
	}
	if metric != vectordb.MetricCosine {
		return fmt.Errorf("creating index: unsupported metric %q", metric)
	}

	if _, err := i.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: creating schema: %v", vectordb.ErrConnection, err)
	}
	if _, err := i.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO vec_meta(id, dimensions, metric) VALUES (1, ?, ?)`,
		dimensions, string(metric),
	); err != nil {
		return fmt.Errorf("%w: recording dimensions: %v", vectordb.ErrConnection, err)
	}

	i.mu.Lock()
	i.dimensions = dimensions
	i.mu.Unlock()

	i.logger.Info("created sqlite-vec index", "dimensions", dimensions, "metric", string(metric))
	return nil
}

func (i *Index) Upsert(ctx context.Context, namespace string, points []vectordb.Point) error {
	dims, err := i.requireCreated(ctx)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		return nil
	}

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %v", vectordb.ErrConnection, err)
	}
	defer tx.Rollback()

	for _, p := range points {
		if len(p.Vector) != dims {
			return fmt.Errorf("%w: point %s has %d, index has %d",
				vectordb.ErrDimensionMismatch, p.ID, len(p.Vector), dims)
		}

		blob, err := sqlite_vec.SerializeFloat32(p.Vector)
		if err != nil {
			return fmt.Errorf("serializing vector for point %s: %w", p.ID, err)
		}
		payload, err := encodeMetadata(p.Metadata)
		if err != nil {
			return fmt.Errorf("encoding payload for point %s: %w", p.ID, err)
		}

		// REPLACE deletes the old row, so a rewritten point gets a fresh rowid
		// and sorts as the newest on ties.
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO vec_points(namespace, point_id, embedding, metadata) VALUES (?, ?, ?, ?)`,
			namespace, p.ID, blob, payload,
		); err != nil {
			return fmt.Errorf("%w: upserting point %s: %v", vectordb.ErrConnection, p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing upsert: %v", vectordb.ErrConnection, err)
	}
	return nil
}

func (i *Index) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]vectordb.Match, error) {
	dims, err := i.requireCreated(ctx)
	if err != nil {
		return nil, err
	}
	if topK <= 0 {
		return []vectordb.Match{}, nil
	}
	if len(vector) != dims {
		return nil, fmt.Errorf("%w: query has %d, index has %d", vectordb.ErrDimensionMismatch, len(vector), dims)
	}

	blob, err := sqlite_vec.SerializeFloat32(vector)
	if err != nil {
		return nil, fmt.Errorf("serializing query vector: %w", err)
	}

	// A zero vector has no cosine distance; those rows rank last.
	rows, err := i.db.QueryContext(ctx, `
		SELECT point_id, metadata, vec_distance_cosine(embedding, ?) AS distance
		FROM vec_points
		WHERE namespace = ?
		ORDER BY distance ASC NULLS LAST, rowid DESC
		LIMIT ?`,
		blob, namespace, topK,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: querying namespace %q: %v", vectordb.ErrConnection, namespace, err)
	}
	defer rows.Close()

	matches := []vectordb.Match{}
	for rows.Next() {
		var (
			id       string
			payload  string
			distance sql.NullFloat64
		)
		if err := rows.Scan(&id, &payload, &distance); err != nil {
			return nil, fmt.Errorf("%w: scanning match: %v", vectordb.ErrConnection, err)
		}

		metadata, err := decodeMetadata(payload)
		if err != nil {
			return nil, fmt.Errorf("decoding payload for point %s: %w", id, err)
		}

		var score float32
		if distance.Valid {
			score = float32(1 - distance.Float64)
		}
		matches = append(matches, vectordb.Match{ID: id, Score: score, Metadata: metadata})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating matches: %v", vectordb.ErrConnection, err)
	}

	return matches, nil
}

func (i *Index) DeleteNamespace(ctx context.Context, namespace string) error {
	if _, err := i.requireCreated(ctx); err != nil {
		if errors.Is(err, vectordb.ErrNotCreated) {
			return nil
		}
		return err
	}

	res, err := i.db.ExecContext(ctx, `DELETE FROM vec_points WHERE namespace = ?`, namespace)
	if err != nil {
		return fmt.Errorf("%w: deleting namespace %q: %v", vectordb.ErrConnection, namespace, err)
	}
	n, _ := res.RowsAffected()
	i.logger.Debug("deleted sqlite-vec namespace", "namespace", namespace, "points", n)
	return nil
}

func (i *Index) DescribeStats(ctx context.Context, namespace string) (vectordb.Stats, error) {
	if _, err := i.requireCreated(ctx); err != nil {
		if errors.Is(err, vectordb.ErrNotCreated) {
			return vectordb.Stats{}, nil
		}
		return vectordb.Stats{}, err
	}

	var n int
	if err := i.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vec_points WHERE namespace = ?`, namespace,
	).Scan(&n); err != nil {
		return vectordb.Stats{}, fmt.Errorf("%w: counting namespace %q: %v", vectordb.ErrConnection, namespace, err)
	}
	return vectordb.Stats{Count: n}, nil
}

func (i *Index) Close() error {
	return i.db.Close()
}

// loadDimensions returns the recorded dimension, or 0 before Create.
func (i *Index) loadDimensions(ctx context.Context) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.dimensions > 0 {
		return i.dimensions, nil
	}

	var tables int
	if err := i.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'vec_meta'`,
	).Scan(&tables); err != nil {
		return 0, fmt.Errorf("%w: reading schema: %v", vectordb.ErrConnection, err)
	}
	if tables == 0 {
		return 0, nil
	}

	var dims int
	err := i.db.QueryRowContext(ctx, `SELECT dimensions FROM vec_meta WHERE id = 1`).Scan(&dims)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("%w: reading dimensions: %v", vectordb.ErrConnection, err)
	}

	i.dimensions = dims
	return dims, nil
}

func (i *Index) requireCreated(ctx context.Context) (int, error) {
	dims, err := i.loadDimensions(ctx)
	if err != nil {
		return 0, err
	}
	if dims == 0 {
		return 0, vectordb.ErrNotCreated
	}
	return dims, nil
}

func encodeMetadata(metadata map[string]any) (string, error) {
	if len(metadata) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeMetadata(payload string) (map[string]any, error) {
	out := map[string]any{}
	if payload == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return nil, err
	}
	return out, nil
}

var _ vectordb.Index = (*Index)(nil)
