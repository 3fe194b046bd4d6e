// Package importance scores a single human/agent exchange for admission into
// long-term semantic memory. Scoring is pure and deterministic.
package importance

import (
	"strings"
	"unicode/utf8"
)

const (
	// Base is the starting score of every exchange.
	Base = 0.5

	// KeywordWeight is added per distinct salience keyword found.
	KeywordWeight = 0.1

	// LengthWeight is added when the human message is longer than LongMessage.
	LengthWeight = 0.1

	// LongMessage is the human message length, in characters, above which
	// LengthWeight applies.
	LongMessage = 50

	// FlagWeight is added when metadata marks the exchange important.
	FlagWeight = 0.3

	// Threshold is the admission cut-off; only scores above it are admitted.
	Threshold = 0.3

	// FlagKey is the metadata key checked for an explicit importance flag.
	FlagKey = "important"
)

// DefaultKeywords is the salience vocabulary: preferences, goals, emotional
// markers and scheduling terms.
var DefaultKeywords = []string{
	// preferences
	"i like", "i love", "i prefer", "i hate", "i dislike", "favorite", "favourite", "allergic",
	// goals
	"goal", "plan", "want to", "trying to", "hope to", "dream", "habit", "achieve",
	// emotional markers
	"feel", "anxious", "stressed", "happy", "sad", "excited", "worried", "grateful", "lonely",
	// scheduling
	"tomorrow", "next week", "deadline", "appointment", "schedule", "remind", "birthday", "anniversary",
	// identity
	"my name", "i am", "i'm", "my family", "my partner", "my job",
}

// Scorer holds a salience vocabulary. The zero value uses DefaultKeywords.
type Scorer struct {
	keywords []string
}

// NewScorer returns a Scorer for keywords. Keywords are matched
// case-insensitively as substrings; duplicates count once.
func NewScorer(keywords ...string) *Scorer {
	seen := make(map[string]struct{}, len(keywords))
	kw := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		kw = append(kw, k)
	}
	return &Scorer{keywords: kw}
}

// Score returns a value in [0, 1].
func (s *Scorer) Score(human, agent string, metadata map[string]any) float64 {
	keywords := DefaultKeywords
	if s != nil && s.keywords != nil {
		keywords = s.keywords
	}

	text := strings.ToLower(human + " " + agent)

	score := Base
	for _, k := range keywords {
		if strings.Contains(text, k) {
			score = min(score+KeywordWeight, 1.0)
		}
	}

	if utf8.RuneCountInString(human) > LongMessage {
		score += LengthWeight
	}

	if Flagged(metadata) {
		score += FlagWeight
	}

	return clamp(score)
}

// Admit reports whether score clears Threshold.
func (s *Scorer) Admit(score float64) bool {
	return score > Threshold
}

// Flagged reports whether metadata explicitly marks an exchange important.
func Flagged(metadata map[string]any) bool {
	switch v := metadata[FlagKey].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	default:
		return false
	}
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
