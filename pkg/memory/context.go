package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/papercomputeco/keepsake/pkg/buffer"
	"github.com/papercomputeco/keepsake/pkg/episodic"
	"github.com/papercomputeco/keepsake/pkg/utils"
)

// Section headings of the assembled context.
const (
	headingSummary  = "Conversation summary:"
	headingRecent   = "Recent conversation:"
	headingMemories = "Relevant memories:"
	headingProfile  = "User profile:"
)

// GetContext assembles the prompt context for userID, optionally focused on
// message. Sections are summary, recent messages, semantic hits, insights and
// profile traits, joined by blank lines. Any section that fails is omitted.
func (o *Orchestrator) GetContext(ctx context.Context, userID, message string) string {
	if userID == "" {
		return ""
	}

	key, c := o.contextKey(userID, message)
	if cached, ok := c.Get(key); ok {
		return cached
	}

	gen := o.generation(userID)
	um, err := o.lockUser(ctx, userID)
	if err != nil {
		return ""
	}
	summary := um.buffer.Summary()
	recent := um.buffer.Last(o.contextMessages)
	episodes := um.episodes.Newest(o.insightWindow)
	traits := o.traitsSection(um)
	um.mu.Unlock()

	var sections []string
	if summary != "" {
		sections = append(sections, headingSummary+"\n"+summary)
	}
	if len(recent) > 0 {
		sections = append(sections, headingRecent+"\n"+buffer.Transcript(recent))
	}
	if hits := o.memoriesSection(ctx, userID, message); hits != "" {
		sections = append(sections, hits)
	}
	if insights := episodic.Summarize(episodes).String(); insights != "" {
		sections = append(sections, insights)
	}
	if traits != "" {
		sections = append(sections, traits)
	}

	out := strings.Join(sections, "\n\n")
	o.cacheContext(c, key, userID, gen, out)
	return out
}

func (o *Orchestrator) generation(userID string) uint64 {
	o.genMu.Lock()
	defer o.genMu.Unlock()
	return o.gens[userID]
}

// cacheContext stores out unless userID was invalidated since gen was read.
func (o *Orchestrator) cacheContext(c contextCache, key, userID string, gen uint64, out string) {
	o.genMu.Lock()
	defer o.genMu.Unlock()
	if o.gens[userID] != gen {
		return
	}
	c.Set(key, out)
}

func (o *Orchestrator) memoriesSection(ctx context.Context, userID, message string) string {
	if strings.TrimSpace(message) == "" {
		return ""
	}

	results, err := o.store.Search(ctx, userID, message, o.semanticHits)
	if err != nil {
		o.logger.Warn("semantic search failed, omitting memories", "user", userID, "error", err)
		return ""
	}
	if len(results) == 0 {
		return ""
	}

	lines := []string{headingMemories}
	for _, r := range results {
		text := strings.Join(strings.Fields(r.Text), " ")
		lines = append(lines, "- "+utils.Clip(text, o.hitLength))
	}
	return strings.Join(lines, "\n")
}

// traitsSection renders profile traits through the profile cache. Callers
// hold um.mu.
func (o *Orchestrator) traitsSection(um *UserMemory) string {
	if cached, ok := o.profileCache.Get(um.userID); ok {
		return cached
	}

	traits := um.profile.Traits
	if len(traits) == 0 {
		o.profileCache.Set(um.userID, "")
		return ""
	}

	keys := make([]string, 0, len(traits))
	for k := range traits {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := []string{headingProfile}
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("- %s: %v", k, traits[k]))
	}

	out := strings.Join(lines, "\n")
	o.profileCache.Set(um.userID, out)
	return out
}

// SearchMemories returns the text of up to limit semantic hits, or an empty
// slice on any failure.
func (o *Orchestrator) SearchMemories(ctx context.Context, userID, query string, limit int) []string {
	results, err := o.store.Search(ctx, userID, query, limit)
	if err != nil {
		o.logger.Warn("semantic search failed", "user", userID, "error", err)
		return []string{}
	}

	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Text)
	}
	return out
}

// contextKey picks the cache for message and derives its key. An empty
// message uses the session cache; otherwise the fast cache keyed by a hash
// of the message prefix.
func (o *Orchestrator) contextKey(userID, message string) (string, contextCache) {
	if message == "" {
		return userID, o.sessionCache
	}
	sum := sha256.Sum256([]byte(utils.Clip(message, FastKeyPrefix)))
	return fastKey(userID) + hex.EncodeToString(sum[:16]), o.fastCache
}

type contextCache interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

func fastKey(userID string) string {
	return userID + "\x00"
}

// invalidate drops every cached context for userID.
func (o *Orchestrator) invalidate(userID string) {
	o.genMu.Lock()
	defer o.genMu.Unlock()
	o.gens[userID]++

	o.sessionCache.Delete(userID)
	o.profileCache.Delete(userID)
	prefix := fastKey(userID)
	o.fastCache.DeleteFunc(func(k string) bool {
		return strings.HasPrefix(k, prefix)
	})
}
