// Package memory is the façade over the keepsake memory subsystem.
//
// An [Orchestrator] owns the resident per-user state (conversation buffer,
// profile and episodic history) and coordinates the importance scorer, the
// episodic extractor, the semantic store and profile persistence. Its read
// and write paths are fail-soft: RecordInteraction and GetContext never
// return errors, they degrade.
//
// Each user's state is guarded by its own mutex, so calls for one user are
// serialized while different users proceed concurrently.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/papercomputeco/keepsake/pkg/buffer"
	"github.com/papercomputeco/keepsake/pkg/cache"
	"github.com/papercomputeco/keepsake/pkg/completion"
	"github.com/papercomputeco/keepsake/pkg/convlog"
	"github.com/papercomputeco/keepsake/pkg/convlog/nop"
	"github.com/papercomputeco/keepsake/pkg/episodic"
	"github.com/papercomputeco/keepsake/pkg/importance"
	"github.com/papercomputeco/keepsake/pkg/logger"
	"github.com/papercomputeco/keepsake/pkg/profile"
	"github.com/papercomputeco/keepsake/pkg/ring"
	"github.com/papercomputeco/keepsake/pkg/semantic"
)

// UserMemory is the resident state of one user.
type UserMemory struct {
	mu sync.Mutex

	userID   string
	buffer   *buffer.Buffer
	profile  *profile.Profile
	episodes *ring.Buffer[episodic.Entry]

	// stale is set once the user has been cleared; holders re-acquire.
	stale bool
}

// UserID returns the owning user id.
func (u *UserMemory) UserID() string {
	return u.userID
}

// Profile returns a copy of the current profile.
func (u *UserMemory) Profile() profile.Profile {
	u.mu.Lock()
	defer u.mu.Unlock()
	return copyProfile(u.profile)
}

// Summary returns the buffer's running summary.
func (u *UserMemory) Summary() string {
	return u.buffer.Summary()
}

// Messages returns the resident buffer messages, oldest first.
func (u *UserMemory) Messages() []buffer.Message {
	return u.buffer.Messages()
}

// Episodes returns the episodic history, oldest first.
func (u *UserMemory) Episodes() []episodic.Entry {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.episodes.Items()
}

// Stale reports whether the state was discarded by ClearUserMemory.
func (u *UserMemory) Stale() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.stale
}

// Orchestrator coordinates every memory component for many users.
type Orchestrator struct {
	store       semantic.Store
	remote      bool
	profiles    *profile.Store
	completer   completion.Completer
	convlog     convlog.Log
	events      EventQueue
	scorer      *importance.Scorer
	extractor   *episodic.Extractor
	consolidate ConsolidateFunc
	clock       func() time.Time
	logger      *slog.Logger

	bufferSize          int
	episodicInterval    int
	consolidateInterval int
	episodicCapacity    int
	recentMessages      int
	contextMessages     int
	semanticHits        int
	hitLength           int
	insightWindow       int
	exportLimit         int
	exportQuery         string

	sessionCache *cache.TTL[string, string]
	fastCache    *cache.TTL[string, string]
	profileCache *cache.TTL[string, string]

	mu       sync.Mutex
	users    map[string]*UserMemory
	clearing map[string]chan struct{}

	// genMu guards gens together with cache writes of assembled contexts.
	genMu sync.Mutex
	gens  map[string]uint64
}

// New builds an Orchestrator. Store and Profiles are required; every other
// field has a default.
func New(c Config) (*Orchestrator, error) {
	if c.Store == nil {
		return nil, fmt.Errorf("%w: semantic store is required", ErrNotConfigured)
	}
	if c.Profiles == nil {
		return nil, fmt.Errorf("%w: profile store is required", ErrNotConfigured)
	}

	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}
	clock := c.Clock
	if clock == nil {
		clock = time.Now
	}
	cl := c.ConversationLog
	if cl == nil {
		cl = nop.New()
	}
	scorer := c.Scorer
	if scorer == nil {
		scorer = importance.NewScorer()
	}
	extractor := c.Extractor
	if extractor == nil {
		extractor = episodic.NewExtractor(episodic.Config{
			Completer: c.Completer,
			Now:       clock,
			Logger:    log,
		})
	}
	consolidate := c.Consolidate
	if consolidate == nil {
		consolidate = func(context.Context, string) error { return nil }
	}
	exportQuery := c.ExportQuery
	if exportQuery == "" {
		exportQuery = DefaultExportQuery
	}

	withClock := cache.WithClock(clock)

	return &Orchestrator{
		store:       c.Store,
		remote:      c.UsingRemoteStore,
		profiles:    c.Profiles,
		completer:   c.Completer,
		convlog:     cl,
		events:      c.Events,
		scorer:      scorer,
		extractor:   extractor,
		consolidate: consolidate,
		clock:       clock,
		logger:      log,

		bufferSize:          intOr(c.BufferSize, DefaultBufferSize),
		episodicInterval:    intOr(c.EpisodicInterval, DefaultEpisodicInterval),
		consolidateInterval: intOr(c.ConsolidateInterval, DefaultConsolidateInterval),
		episodicCapacity:    intOr(c.EpisodicCapacity, DefaultEpisodicCapacity),
		recentMessages:      intOr(c.RecentMessages, DefaultRecentMessages),
		contextMessages:     intOr(c.ContextMessages, DefaultContextMessages),
		semanticHits:        intOr(c.SemanticHits, DefaultSemanticHits),
		hitLength:           intOr(c.HitLength, DefaultHitLength),
		insightWindow:       intOr(c.InsightWindow, DefaultInsightWindow),
		exportLimit:         intOr(c.ExportLimit, DefaultExportLimit),
		exportQuery:         exportQuery,

		sessionCache: cache.New[string, string](durationOr(c.SessionTTL, DefaultSessionTTL), withClock),
		fastCache:    cache.New[string, string](durationOr(c.FastTTL, DefaultFastTTL), withClock),
		profileCache: cache.New[string, string](durationOr(c.ProfileTTL, DefaultProfileTTL), withClock),

		users:    make(map[string]*UserMemory),
		clearing: make(map[string]chan struct{}),
		gens:     make(map[string]uint64),
	}, nil
}

// UsingRemoteStore reports whether the semantic store is the remote one.
func (o *Orchestrator) UsingRemoteStore() bool {
	return o.remote
}

// GetUserMemory returns userID's resident state, loading it from disk on
// first access. The same pointer is returned until the user is cleared.
// While a clear of userID is in flight it waits for the clear or ctx.
func (o *Orchestrator) GetUserMemory(ctx context.Context, userID string) (*UserMemory, error) {
	if err := semantic.Validate(userID); err != nil {
		return nil, err
	}

	for {
		o.mu.Lock()
		done, clearing := o.clearing[userID]
		if !clearing {
			um, ok := o.users[userID]
			if !ok {
				um = o.load(userID)
				o.users[userID] = um
			}
			o.mu.Unlock()
			return um, nil
		}
		o.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// load builds resident state from persisted files, falling back to
// defaults on any read error.
func (o *Orchestrator) load(userID string) *UserMemory {
	p, err := o.profiles.Load(userID)
	if err != nil {
		o.logger.Warn("loading profile failed, using default", "user", userID, "error", err)
	}

	entries, err := o.profiles.LoadEpisodes(userID)
	if err != nil {
		o.logger.Warn("loading episodes failed, starting empty", "user", userID, "error", err)
	}

	buf := buffer.New(buffer.Config{
		MaxMessages: o.bufferSize,
		Completer:   o.completer,
		Logger:      o.logger,
	})
	buf.Restore(p.ShortTermSummary, p.RecentMessages)

	o.logger.Debug("user memory initialized",
		"user", userID,
		"conversation_count", p.ConversationCount,
		"episodes", len(entries),
	)

	return &UserMemory{
		userID:   userID,
		buffer:   buf,
		profile:  p,
		episodes: episodic.NewHistory(o.episodicCapacity, entries...),
	}
}

// lockUser returns userID's state with its mutex held. State cleared while
// waiting for the lock is skipped in favor of a fresh one.
func (o *Orchestrator) lockUser(ctx context.Context, userID string) (*UserMemory, error) {
	for {
		um, err := o.GetUserMemory(ctx, userID)
		if err != nil {
			return nil, err
		}
		um.mu.Lock()
		if !um.stale {
			return um, nil
		}
		um.mu.Unlock()
	}
}

// UpdateProfile merges traits into userID's profile and flushes it.
func (o *Orchestrator) UpdateProfile(ctx context.Context, userID string, traits map[string]any) error {
	um, err := o.lockUser(ctx, userID)
	if err != nil {
		return err
	}
	defer um.mu.Unlock()

	maps.Copy(um.profile.Traits, traits)
	um.profile.LastUpdated = o.clock().UTC()
	o.invalidate(userID)

	if err := o.profiles.Save(um.profile); err != nil {
		o.logger.Error("saving profile failed", "user", userID, "error", err)
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}

// flush copies buffer state into the profile and writes it. Callers hold
// um.mu.
func (o *Orchestrator) flush(um *UserMemory) error {
	um.profile.RecentMessages = um.buffer.Last(o.recentMessages)
	um.profile.ShortTermSummary = um.buffer.Summary()
	um.profile.LastUpdated = o.clock().UTC()
	return o.profiles.Save(um.profile)
}

func copyProfile(p *profile.Profile) profile.Profile {
	cp := *p
	cp.Traits = maps.Clone(p.Traits)
	cp.RecentMessages = slices.Clone(p.RecentMessages)
	return cp
}
