package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/papercomputeco/keepsake/pkg/convlog"
	"github.com/papercomputeco/keepsake/pkg/episodic"
	"github.com/papercomputeco/keepsake/pkg/profile"
	"github.com/papercomputeco/keepsake/pkg/semantic"
)

// ClearResult lists what ClearUserMemory removed.
type ClearResult struct {
	UserID          string   `json:"user_id"`
	ResidentCleared bool     `json:"resident_cleared"`
	SemanticCleared bool     `json:"semantic_cleared"`
	FilesCleared    bool     `json:"files_cleared"`
	Errors          []string `json:"errors,omitempty"`
}

// OK reports whether every sub-step succeeded.
func (r *ClearResult) OK() bool {
	return len(r.Errors) == 0
}

// ClearUserMemory removes userID's resident state, semantic namespace,
// profile and episodic files, and cached contexts. Every step is attempted.
//
// Until it returns, GetUserMemory for userID waits instead of reloading the
// files being deleted. Other users are not held up.
func (o *Orchestrator) ClearUserMemory(ctx context.Context, userID string) *ClearResult {
	res := &ClearResult{UserID: userID}
	if err := semantic.Validate(userID); err != nil {
		res.Errors = append(res.Errors, err.Error())
		return res
	}

	um, err := o.beginClear(ctx, userID)
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
		return res
	}
	defer o.endClear(userID)

	if um != nil {
		um.mu.Lock()
		um.stale = true
		um.buffer.Clear()
		um.episodes.Clear()
		um.mu.Unlock()
	}
	res.ResidentCleared = true

	if err := o.store.DeleteAll(ctx, userID); err != nil {
		o.logger.Error("deleting semantic namespace failed", "user", userID, "error", err)
		res.Errors = append(res.Errors, fmt.Sprintf("semantic: %v", err))
	} else {
		res.SemanticCleared = true
	}

	if err := o.profiles.Delete(userID); err != nil {
		o.logger.Error("deleting profile files failed", "user", userID, "error", err)
		res.Errors = append(res.Errors, fmt.Sprintf("files: %v", err))
	} else {
		res.FilesCleared = true
	}

	o.invalidate(userID)

	o.logger.Info("user memory cleared", "user", userID, "ok", res.OK())
	return res
}

// beginClear marks userID as being cleared and detaches its resident state,
// returning it (nil when not resident). A clear already in flight for the
// same user is waited out first.
func (o *Orchestrator) beginClear(ctx context.Context, userID string) (*UserMemory, error) {
	for {
		o.mu.Lock()
		done, clearing := o.clearing[userID]
		if !clearing {
			o.clearing[userID] = make(chan struct{})
			um := o.users[userID]
			delete(o.users, userID)
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

// endClear lifts the mark set by beginClear and wakes waiting loaders.
func (o *Orchestrator) endClear(userID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if done, ok := o.clearing[userID]; ok {
		delete(o.clearing, userID)
		close(done)
	}
}

// Export is a snapshot of everything held for a user.
type Export struct {
	UserID              string            `json:"user_id"`
	ExportedAt          time.Time         `json:"exported_at"`
	UsingRemoteStore    bool              `json:"using_remote_store"`
	Profile             profile.Profile   `json:"profile"`
	Summary             string            `json:"summary"`
	ConversationHistory []convlog.Entry   `json:"conversation_history"`
	Memories            []semantic.Result `json:"memories"`
	Episodes            []episodic.Entry  `json:"episodes"`
	Card                episodic.Card     `json:"card"`
	Error               string            `json:"error,omitempty"`
}

// ExportUserData collects userID's profile, conversation log, semantic hits,
// episodes and summary card. Failing parts are left empty and described in
// Export.Error.
func (o *Orchestrator) ExportUserData(ctx context.Context, userID string) *Export {
	exp := &Export{
		UserID:              userID,
		ExportedAt:          o.clock().UTC(),
		UsingRemoteStore:    o.remote,
		ConversationHistory: []convlog.Entry{},
		Memories:            []semantic.Result{},
		Episodes:            []episodic.Entry{},
	}

	um, err := o.lockUser(ctx, userID)
	if err != nil {
		exp.Error = err.Error()
		return exp
	}
	exp.Profile = copyProfile(um.profile)
	exp.Summary = um.buffer.Summary()
	exp.Episodes = um.episodes.Items()
	um.mu.Unlock()

	exp.Card = episodic.BuildCard(exp.Episodes)

	var errs []error
	if history, err := o.convlog.History(ctx, userID, 0); err != nil {
		errs = append(errs, fmt.Errorf("conversation log: %w", err))
	} else {
		exp.ConversationHistory = history
	}

	if results, err := o.store.Search(ctx, userID, o.exportQuery, o.exportLimit); err != nil {
		errs = append(errs, fmt.Errorf("semantic: %w", err))
	} else {
		exp.Memories = results
	}

	if err := errors.Join(errs...); err != nil {
		o.logger.Warn("export incomplete", "user", userID, "error", err)
		exp.Error = err.Error()
	}
	return exp
}

// Stats describes the orchestrator as a whole.
type Stats struct {
	ResidentUsers    int    `json:"resident_users"`
	UsingRemoteStore bool   `json:"using_remote_store"`
	StoreMode        string `json:"store_mode"`
	SessionCache     int    `json:"session_cache"`
	FastCache        int    `json:"fast_cache"`
	ProfileCache     int    `json:"profile_cache"`
}

// Store modes reported by Stats.
const (
	StoreModeRemote = "remote"
	StoreModeLocal  = "local"
)

// Stats reports resident users, store mode and cache sizes.
func (o *Orchestrator) Stats() Stats {
	o.mu.Lock()
	resident := len(o.users)
	o.mu.Unlock()

	mode := StoreModeLocal
	if o.remote {
		mode = StoreModeRemote
	}

	return Stats{
		ResidentUsers:    resident,
		UsingRemoteStore: o.remote,
		StoreMode:        mode,
		SessionCache:     o.sessionCache.Len(),
		FastCache:        o.fastCache.Len(),
		ProfileCache:     o.profileCache.Len(),
	}
}

// UserStats describes one user's memory.
type UserStats struct {
	UserID                   string `json:"user_id"`
	ConversationCount        int    `json:"conversation_count"`
	InteractionsSinceEpisode int    `json:"interactions_since_episode"`
	BufferedMessages         int    `json:"buffered_messages"`
	HasSummary               bool   `json:"has_summary"`
	Episodes                 int    `json:"episodes"`
	Traits                   int    `json:"traits"`
	SemanticRecords          int    `json:"semantic_records"`
}

// UserStats reports userID's counters. The semantic count is -1 when the
// store could not be asked, and the error is returned alongside.
func (o *Orchestrator) UserStats(ctx context.Context, userID string) (UserStats, error) {
	um, err := o.lockUser(ctx, userID)
	if err != nil {
		return UserStats{}, err
	}
	st := UserStats{
		UserID:                   userID,
		ConversationCount:        um.profile.ConversationCount,
		InteractionsSinceEpisode: um.profile.InteractionsSinceEpisode,
		BufferedMessages:         um.buffer.Len(),
		HasSummary:               um.buffer.Summary() != "",
		Episodes:                 um.episodes.Len(),
		Traits:                   len(um.profile.Traits),
	}
	um.mu.Unlock()

	sem, err := o.store.Stats(ctx, userID)
	if err != nil {
		st.SemanticRecords = -1
		return st, fmt.Errorf("semantic stats: %w", err)
	}
	st.SemanticRecords = sem.Count
	return st, nil
}

// Close releases the semantic store and conversation log.
func (o *Orchestrator) Close() error {
	return errors.Join(o.store.Close(), o.convlog.Close())
}
