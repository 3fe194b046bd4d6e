package memory

import (
	"context"
	"fmt"
	"maps"

	"github.com/papercomputeco/keepsake/pkg/buffer"
	"github.com/papercomputeco/keepsake/pkg/episodic"
	"github.com/papercomputeco/keepsake/pkg/eventstream"
	"github.com/papercomputeco/keepsake/pkg/semantic"
	"github.com/papercomputeco/keepsake/pkg/worker"
)

// RecordResult describes what RecordInteraction did.
type RecordResult struct {
	UserID            string          `json:"user_id"`
	ConversationCount int             `json:"conversation_count"`
	Importance        float64         `json:"importance"`
	StoredInSemantic  bool            `json:"stored_in_semantic"`
	MemoryID          string          `json:"memory_id,omitempty"`
	Episode           *episodic.Entry `json:"episode,omitempty"`
	Errors            []string        `json:"errors,omitempty"`
}

// Degraded reports whether any step failed.
func (r *RecordResult) Degraded() bool {
	return len(r.Errors) > 0
}

func (r *RecordResult) fail(step string, err error) {
	r.Errors = append(r.Errors, fmt.Sprintf("%s: %v", step, err))
}

// RecordInteraction runs the write path for one human/agent exchange. Steps
// run in a fixed order and a failing step never stops the profile flush.
// Failures are logged and listed in the result.
func (o *Orchestrator) RecordInteraction(ctx context.Context, userID, human, agent string, metadata map[string]any) *RecordResult {
	res := &RecordResult{UserID: userID}

	um, err := o.lockUser(ctx, userID)
	if err != nil {
		o.logger.Warn("interaction not recorded", "error", err)
		res.fail("user", err)
		return res
	}
	defer um.mu.Unlock()

	if err := um.buffer.Append(ctx,
		buffer.Message{Role: buffer.RoleHuman, Text: human},
		buffer.Message{Role: buffer.RoleAgent, Text: agent},
	); err != nil {
		o.logger.Warn("buffer summary degraded", "user", userID, "error", err)
		res.fail("buffer", err)
	}

	um.profile.InteractionsSinceEpisode++
	um.profile.ConversationCount++
	res.ConversationCount = um.profile.ConversationCount

	o.logConversation(ctx, userID, human, agent, metadata)

	res.Importance = o.scorer.Score(human, agent, metadata)
	if o.scorer.Admit(res.Importance) {
		id, err := o.store.Store(ctx, userID, human+"\n"+agent, o.conversationMetadata(human, agent, res.Importance, metadata))
		res.MemoryID = id
		res.StoredInSemantic = id != ""
		if err != nil {
			o.logger.Warn("storing semantic memory failed", "user", userID, "error", err)
			res.fail("semantic", err)
		}
	}

	if um.profile.InteractionsSinceEpisode >= o.episodicInterval {
		um.profile.InteractionsSinceEpisode = 0
		entry := o.recordEpisode(ctx, um, human, agent, res)
		res.Episode = &entry
	}

	if o.consolidateInterval > 0 && um.profile.ConversationCount%o.consolidateInterval == 0 {
		if err := o.consolidate(ctx, userID); err != nil {
			o.logger.Warn("consolidation failed", "user", userID, "error", err)
			res.fail("consolidate", err)
		}
	}

	if err := o.flush(um); err != nil {
		o.logger.Error("saving profile failed", "user", userID, "error", err)
		res.fail("profile", err)
	}

	o.invalidate(userID)
	o.publish(userID, human, agent, res)

	o.logger.Debug("interaction recorded",
		"user", userID,
		"conversation_count", res.ConversationCount,
		"importance", res.Importance,
		"stored", res.StoredInSemantic,
		"episode", res.Episode != nil,
	)

	return res
}

func (o *Orchestrator) logConversation(ctx context.Context, userID, human, agent string, metadata map[string]any) {
	for _, m := range []struct{ role, text string }{
		{buffer.RoleHuman, human},
		{buffer.RoleAgent, agent},
	} {
		if err := o.convlog.AppendMessage(ctx, userID, m.role, m.text, metadata); err != nil {
			o.logger.Warn("conversation log append failed", "user", userID, "role", m.role, "error", err)
		}
	}
}

func (o *Orchestrator) conversationMetadata(human, agent string, score float64, extra map[string]any) map[string]any {
	md := make(map[string]any, len(extra)+4)
	maps.Copy(md, extra)
	md[semantic.MetaType] = semantic.TypeConversation
	md["human"] = human
	md["agent"] = agent
	md["importance"] = score
	return md
}

// recordEpisode extracts, keeps and mirrors an entry. Callers hold um.mu.
func (o *Orchestrator) recordEpisode(ctx context.Context, um *UserMemory, human, agent string, res *RecordResult) episodic.Entry {
	entry, err := o.extractor.Extract(ctx, human, agent)
	if err != nil {
		o.logger.Warn("episodic extraction degraded", "user", um.userID, "error", err)
		res.fail("episodic", err)
	}

	um.episodes.Push(entry)

	md := map[string]any{
		semantic.MetaType: semantic.TypeEpisodic,
		"emotion":         entry.Emotion,
		"season":          entry.Season,
		"mood":            entry.Mood,
		"spheres":         entry.Spheres,
	}
	if _, err := o.store.Store(ctx, um.userID, entry.Text(), md); err != nil {
		o.logger.Warn("storing episodic memory failed", "user", um.userID, "error", err)
		res.fail("episodic store", err)
	}

	if err := o.profiles.SaveEpisodes(um.userID, um.episodes.Items()); err != nil {
		o.logger.Error("saving episodes failed", "user", um.userID, "error", err)
		res.fail("episodic save", err)
	}

	return entry
}

func (o *Orchestrator) publish(userID, human, agent string, res *RecordResult) {
	if o.events == nil {
		return
	}

	event := eventstream.NewInteractionRecordedEvent(userID, human, agent, eventstream.InteractionOutcome{
		ConversationCount: res.ConversationCount,
		Importance:        res.Importance,
		StoredInSemantic:  res.StoredInSemantic,
		EpisodeRecorded:   res.Episode != nil,
		UsingRemoteStore:  o.remote,
		Errors:            res.Errors,
	}, o.clock())

	o.events.Enqueue(worker.Job{Event: event})
}
