// Package episodic turns a single exchange into a compact tagged snapshot of
// the user's state and aggregates recent snapshots into insights.
package episodic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/papercomputeco/keepsake/pkg/completion"
	"github.com/papercomputeco/keepsake/pkg/logger"
	"github.com/papercomputeco/keepsake/pkg/utils"
)

const (
	// MaxAffirmation is the affirmation length limit in characters.
	MaxAffirmation = 100

	// MaxSnippet is the raw snippet length limit in characters.
	MaxSnippet = 200
)

// ErrExtraction is wrapped when an entry fell back to NeutralEntry.
var ErrExtraction = errors.New("episodic extraction failed")

// Entry is one episodic snapshot.
type Entry struct {
	Timestamp   time.Time `json:"timestamp"`
	Spheres     []string  `json:"spheres"`
	Emotion     string    `json:"emotion"`
	Season      string    `json:"season"`
	Mood        string    `json:"mood"`
	Affirmation string    `json:"affirmation"`
	Snippet     string    `json:"snippet"`
}

// Text renders e for semantic indexing.
func (e Entry) Text() string {
	spheres := "none"
	if len(e.Spheres) > 0 {
		spheres = strings.Join(e.Spheres, ", ")
	}
	return fmt.Sprintf("Episode: spheres %s; emotion %s; season %s; mood %s. %s",
		spheres, e.Emotion, e.Season, e.Mood, e.Affirmation)
}

// NeutralEntry is the documented fallback: no spheres and the first label
// of every vocabulary. The snippet is kept since it needs no service.
func NeutralEntry(at time.Time, snippet string) Entry {
	return Entry{
		Timestamp:   at,
		Spheres:     []string{},
		Emotion:     Emotions[0],
		Season:      Seasons[0],
		Mood:        Moods[0],
		Affirmation: DefaultAffirmation,
		Snippet:     utils.Clip(snippet, MaxSnippet),
	}
}

// Config holds configuration for an Extractor.
type Config struct {
	// Completer classifies and writes affirmations. When nil every
	// extraction returns NeutralEntry.
	Completer completion.Completer

	// Now defaults to time.Now.
	Now func() time.Time

	Logger *slog.Logger
}

// Extractor classifies exchanges.
type Extractor struct {
	completer completion.Completer
	now       func() time.Time
	logger    *slog.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(c Config) *Extractor {
	now := c.Now
	if now == nil {
		now = time.Now
	}
	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Extractor{
		completer: c.Completer,
		now:       now,
		logger:    log,
	}
}

// Extract builds an Entry for one exchange. It always returns a well-formed
// entry; when any completion step fails the entry is NeutralEntry and the
// error wraps ErrExtraction.
func (x *Extractor) Extract(ctx context.Context, human, agent string) (Entry, error) {
	at := x.now().UTC()

	if x.completer == nil {
		return NeutralEntry(at, human), fmt.Errorf("%w: no completer configured", ErrExtraction)
	}

	exchange := "Human: " + human + "\nAgent: " + agent

	emotion, err := x.classify(ctx, "the emotional tone of the human", exchange, Emotions)
	if err != nil {
		return x.neutral(at, human, "emotion", err)
	}
	season, err := x.classify(ctx, "the life season the human is in", exchange, Seasons)
	if err != nil {
		return x.neutral(at, human, "season", err)
	}
	mood, err := x.classify(ctx, "the mood aesthetic of the exchange", exchange, Moods)
	if err != nil {
		return x.neutral(at, human, "mood", err)
	}

	affirmation, err := x.affirm(ctx, exchange)
	if err != nil {
		return x.neutral(at, human, "affirmation", err)
	}

	return Entry{
		Timestamp:   at,
		Spheres:     TagSpheres(human + " " + agent),
		Emotion:     emotion,
		Season:      season,
		Mood:        mood,
		Affirmation: affirmation,
		Snippet:     utils.Clip(human, MaxSnippet),
	}, nil
}

func (x *Extractor) neutral(at time.Time, human, step string, err error) (Entry, error) {
	x.logger.Warn("episodic extraction failed, using neutral entry",
		"step", step,
		"error", err,
	)
	return NeutralEntry(at, human), fmt.Errorf("%w: %s: %v", ErrExtraction, step, err)
}

func (x *Extractor) classify(ctx context.Context, what, exchange string, labels []string) (string, error) {
	prompt := fmt.Sprintf(
		"Classify %s in the exchange below.\nAnswer with exactly one word from this list: %s.\n\n%s",
		what, strings.Join(labels, ", "), exchange,
	)

	reply, err := x.completer.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	return Coerce(reply, labels), nil
}

func (x *Extractor) affirm(ctx context.Context, exchange string) (string, error) {
	prompt := "Write one short, first-person, present-tense affirmation (under 15 words) " +
		"for the human in the exchange below. Reply with the affirmation only.\n\n" + exchange

	reply, err := x.completer.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}

	reply = strings.Trim(strings.TrimSpace(reply), "\"'“”‘’`")
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", completion.ErrEmptyCompletion
	}
	return utils.Clip(reply, MaxAffirmation), nil
}

// Coerce normalizes a classifier reply and maps it onto labels. Anything
// outside the set becomes labels[0].
func Coerce(reply string, labels []string) string {
	label := strings.ToLower(strings.TrimSpace(reply))
	label = strings.TrimFunc(label, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if slices.Contains(labels, label) {
		return label
	}
	return labels[0]
}

// TagSpheres returns the sorted spheres whose stems start any word of text.
func TagSpheres(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	tagged := []string{}
	for sphere, stems := range Spheres {
		if matchesAny(words, stems) {
			tagged = append(tagged, sphere)
		}
	}
	sort.Strings(tagged)
	return tagged
}

func matchesAny(words, stems []string) bool {
	for _, w := range words {
		for _, s := range stems {
			if strings.HasPrefix(w, s) {
				return true
			}
		}
	}
	return false
}
