// Package local implements semantic.Store on one JSON file per user with
// keyword-overlap scoring. It serves when the remote vector database is
// unavailable.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/keepsake/pkg/logger"
	"github.com/papercomputeco/keepsake/pkg/ring"
	"github.com/papercomputeco/keepsake/pkg/semantic"
	"github.com/papercomputeco/keepsake/pkg/utils"
)

// DefaultMaxRecords is the per-user record cap.
const DefaultMaxRecords = 1000

// Config holds configuration for the local store.
type Config struct {
	// Dir holds the per-user files. Required.
	Dir string

	// MaxRecords defaults to DefaultMaxRecords. The oldest records are
	// dropped beyond it.
	MaxRecords int

	// Now defaults to time.Now.
	Now func() time.Time
}

// Store implements semantic.Store.
type Store struct {
	dir        string
	maxRecords int
	now        func() time.Time
	logger     *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates the store directory if needed.
func NewStore(c Config, log *slog.Logger) (*Store, error) {
	if c.Dir == "" {
		return nil, errors.New("local store: directory is required")
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating local store directory: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}

	maxRecords := c.MaxRecords
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}

	now := c.Now
	if now == nil {
		now = time.Now
	}

	return &Store{
		dir:        c.Dir,
		maxRecords: maxRecords,
		now:        now,
		logger:     log,
		locks:      make(map[string]*sync.Mutex),
	}, nil
}

// Path returns the file holding userID's records.
func (s *Store) Path(userID string) string {
	return filepath.Join(s.dir, utils.SafeFileName(semantic.Namespace(userID))+".json")
}

func (s *Store) Store(_ context.Context, userID, text string, metadata map[string]any) (string, error) {
	if err := semantic.Validate(userID); err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", semantic.ErrEmptyText
	}

	unlock := s.lock(userID)
	defer unlock()

	records, err := s.load(userID)
	if err != nil {
		return "", err
	}

	buf := ring.From(s.maxRecords, records)
	rec := semantic.Record{
		ID:        uuid.NewString(),
		Namespace: semantic.Namespace(userID),
		Text:      text,
		Metadata:  maps.Clone(metadata),
		Timestamp: s.now().UTC(),
	}
	if _, dropped := buf.Push(rec); dropped {
		s.logger.Debug("local store full, dropped oldest record", "user", userID)
	}

	if err := s.save(userID, buf.Items()); err != nil {
		return "", err
	}

	return rec.ID, nil
}

// Search scores each record by the fraction of distinct query tokens it
// contains. Records scoring zero are dropped; ties go to the newer record.
func (s *Store) Search(_ context.Context, userID, query string, topK int) ([]semantic.Result, error) {
	if err := semantic.Validate(userID); err != nil {
		return nil, err
	}

	queryTokens := uniqueTokens(query)
	if topK <= 0 || len(queryTokens) == 0 {
		return []semantic.Result{}, nil
	}

	unlock := s.lock(userID)
	records, err := s.load(userID)
	unlock()
	if err != nil {
		return nil, err
	}

	results := make([]semantic.Result, 0)
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]

		textTokens := make(map[string]struct{})
		for _, t := range strings.Fields(strings.ToLower(rec.Text)) {
			textTokens[t] = struct{}{}
		}

		matches := 0
		for _, t := range queryTokens {
			if _, ok := textTokens[t]; ok {
				matches++
			}
		}
		if matches == 0 {
			continue
		}

		metadata := maps.Clone(rec.Metadata)
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[semantic.MetaTimestamp] = rec.Timestamp.Format(time.RFC3339Nano)
		metadata[semantic.MetaUser] = userID

		results = append(results, semantic.Result{
			ID:       rec.ID,
			Text:     rec.Text,
			Score:    float64(matches) / float64(len(queryTokens)),
			Metadata: metadata,
		})
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (s *Store) Stats(_ context.Context, userID string) (semantic.Stats, error) {
	if err := semantic.Validate(userID); err != nil {
		return semantic.Stats{}, err
	}

	unlock := s.lock(userID)
	defer unlock()

	records, err := s.load(userID)
	if err != nil {
		return semantic.Stats{}, err
	}
	return semantic.Stats{Count: len(records)}, nil
}

func (s *Store) DeleteAll(_ context.Context, userID string) error {
	if err := semantic.Validate(userID); err != nil {
		return err
	}

	unlock := s.lock(userID)
	defer unlock()

	if err := os.Remove(s.Path(userID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting local memories: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) lock(userID string) func() {
	s.mu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (s *Store) load(userID string) ([]semantic.Record, error) {
	data, err := os.ReadFile(s.Path(userID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading local memories: %w", err)
	}

	var records []semantic.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding local memories: %w", err)
	}

	// Only records stamped with userID's namespace belong to userID.
	ns := semantic.Namespace(userID)
	owned := records[:0]
	for _, rec := range records {
		if rec.Namespace == ns {
			owned = append(owned, rec)
		}
	}
	if dropped := len(records) - len(owned); dropped > 0 {
		s.logger.Warn("ignoring records from another namespace", "user", userID, "records", dropped)
	}
	return owned, nil
}

func (s *Store) save(userID string, records []semantic.Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding local memories: %w", err)
	}
	if err := utils.WriteFileAtomic(s.Path(userID), data, 0o644); err != nil {
		return fmt.Errorf("writing local memories: %w", err)
	}
	return nil
}

func uniqueTokens(s string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range strings.Fields(strings.ToLower(s)) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

var _ semantic.Store = (*Store)(nil)
