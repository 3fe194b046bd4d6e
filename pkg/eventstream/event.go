package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeInteractionRecorded is emitted after an interaction has been
	// recorded and the profile flushed.
	EventTypeInteractionRecorded = "keepsake.interaction.recorded"
)

// InteractionRecordedEvent is a transport-neutral event payload for one
// recorded exchange.
type InteractionRecordedEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`
	UserID        string    `json:"user_id"`

	Human string `json:"human"`
	Agent string `json:"agent"`

	Outcome InteractionOutcome `json:"outcome"`
}

// InteractionOutcome summarizes what the memory pipeline did with the exchange.
type InteractionOutcome struct {
	ConversationCount int      `json:"conversation_count"`
	Importance        float64  `json:"importance"`
	StoredInSemantic  bool     `json:"stored_in_semantic"`
	EpisodeRecorded   bool     `json:"episode_recorded"`
	UsingRemoteStore  bool     `json:"using_remote_store"`
	Errors            []string `json:"errors,omitempty"`
}

// NewInteractionRecordedEvent fills the envelope fields.
func NewInteractionRecordedEvent(userID, human, agent string, outcome InteractionOutcome, at time.Time) *InteractionRecordedEvent {
	return &InteractionRecordedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeInteractionRecorded,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     at.UTC(),
		UserID:        userID,
		Human:         human,
		Agent:         agent,
		Outcome:       outcome,
	}
}
