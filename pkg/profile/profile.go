// Package profile persists per-user profile and episodic files as
// pretty-printed JSON, one file per user and kind.
package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/papercomputeco/keepsake/pkg/buffer"
	"github.com/papercomputeco/keepsake/pkg/episodic"
	"github.com/papercomputeco/keepsake/pkg/logger"
	"github.com/papercomputeco/keepsake/pkg/utils"
)

// ErrCorrupt is wrapped when a file could not be decoded and was moved
// aside to a .backup file.
var ErrCorrupt = errors.New("corrupt profile file")

// Profile is the durable per-user state.
type Profile struct {
	UserID            string           `json:"user_id"`
	Traits            map[string]any   `json:"traits"`
	RecentMessages    []buffer.Message `json:"recent_messages"`
	ShortTermSummary  string           `json:"short_term_summary"`
	ConversationCount int              `json:"conversation_count"`

	// InteractionsSinceEpisode carries the episodic cadence across restarts.
	InteractionsSinceEpisode int `json:"interactions_since_episode"`

	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
}

// Config holds configuration for a Store.
type Config struct {
	ProfileDir  string
	EpisodicDir string

	// Now defaults to time.Now.
	Now func() time.Time
}

// Store reads and writes profile files. It does no locking of its own;
// callers serialize access per user.
type Store struct {
	profileDir  string
	episodicDir string
	now         func() time.Time
	logger      *slog.Logger
}

// NewStore creates both directories if needed.
func NewStore(c Config, log *slog.Logger) (*Store, error) {
	if c.ProfileDir == "" || c.EpisodicDir == "" {
		return nil, errors.New("profile store: profile and episodic directories are required")
	}
	for _, dir := range []string{c.ProfileDir, c.EpisodicDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if log == nil {
		log = logger.Nop()
	}

	now := c.Now
	if now == nil {
		now = time.Now
	}

	return &Store{
		profileDir:  c.ProfileDir,
		episodicDir: c.EpisodicDir,
		now:         now,
		logger:      log,
	}, nil
}

// Default returns a fresh profile for userID.
func (s *Store) Default(userID string) *Profile {
	at := s.now().UTC()
	return &Profile{
		UserID:         userID,
		Traits:         map[string]any{},
		RecentMessages: []buffer.Message{},
		CreatedAt:      at,
		LastUpdated:    at,
	}
}

// ProfilePath returns {profileDir}/{user}_profile.json.
func (s *Store) ProfilePath(userID string) string {
	return filepath.Join(s.profileDir, utils.SafeFileName(userID)+"_profile.json")
}

// EpisodicPath returns {episodicDir}/{user}_episodic.json.
func (s *Store) EpisodicPath(userID string) string {
	return filepath.Join(s.episodicDir, utils.SafeFileName(userID)+"_episodic.json")
}

// Load reads userID's profile. A missing file, or one recording a different
// user id, yields Default. A file that
// cannot be decoded is renamed to {name}.backup and Default is returned
// together with an error wrapping ErrCorrupt.
func (s *Store) Load(userID string) (*Profile, error) {
	p := s.Default(userID)

	found, err := s.read(s.ProfilePath(userID), p)
	if err != nil {
		return s.Default(userID), err
	}
	if !found {
		return p, nil
	}
	if p.UserID != "" && p.UserID != userID {
		s.logger.Warn("profile file belongs to another user, starting fresh",
			"user", userID, "owner", p.UserID, "path", s.ProfilePath(userID))
		return s.Default(userID), nil
	}

	p.UserID = userID
	if p.Traits == nil {
		p.Traits = map[string]any{}
	}
	if p.RecentMessages == nil {
		p.RecentMessages = []buffer.Message{}
	}
	return p, nil
}

// Save writes p atomically.
func (s *Store) Save(p *Profile) error {
	if p == nil || p.UserID == "" {
		return errors.New("saving profile: user id is required")
	}
	return s.write(s.ProfilePath(p.UserID), p)
}

// LoadEpisodes reads userID's episodic entries, oldest first. Corrupt files
// are handled as in Load.
func (s *Store) LoadEpisodes(userID string) ([]episodic.Entry, error) {
	var entries []episodic.Entry
	if _, err := s.read(s.EpisodicPath(userID), &entries); err != nil {
		return []episodic.Entry{}, err
	}
	if entries == nil {
		entries = []episodic.Entry{}
	}
	return entries, nil
}

// SaveEpisodes writes entries atomically.
func (s *Store) SaveEpisodes(userID string, entries []episodic.Entry) error {
	if entries == nil {
		entries = []episodic.Entry{}
	}
	return s.write(s.EpisodicPath(userID), entries)
}

// Delete removes both of userID's files. Missing files are not an error;
// every removal is attempted.
func (s *Store) Delete(userID string) error {
	var errs []error
	for _, path := range []string{s.ProfilePath(userID), s.EpisodicPath(userID)} {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("removing %s: %w", filepath.Base(path), err))
		}
	}
	return errors.Join(errs...)
}

func (s *Store) read(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}

	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		s.logger.Warn("file is not valid UTF-8, decoding as ISO-8859-1", "path", path)
		if decoded, derr := charmap.ISO8859_1.NewDecoder().Bytes(data); derr == nil {
			data = decoded
		}
	}

	if err := json.Unmarshal(data, v); err != nil {
		backup := path + ".backup"
		if rerr := os.Rename(path, backup); rerr != nil {
			s.logger.Error("could not move corrupt file aside", "path", path, "error", rerr)
		} else {
			s.logger.Warn("moved corrupt file aside", "path", path, "backup", backup, "error", err)
		}
		return false, fmt.Errorf("%w: %s: %v", ErrCorrupt, filepath.Base(path), err)
	}

	return true, nil
}

func (s *Store) write(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := utils.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}
