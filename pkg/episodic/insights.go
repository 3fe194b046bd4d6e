package episodic

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// TopSpheres is the number of spheres Summarize reports.
const TopSpheres = 3

// Insights aggregates a window of entries.
type Insights struct {
	Spheres     []string `json:"spheres"`
	Emotion     string   `json:"emotion"`
	Season      string   `json:"season"`
	Affirmation string   `json:"affirmation"`
	Entries     int      `json:"entries"`
}

// Summarize reports the most frequent spheres (ties alphabetical) and the
// latest emotion, season and affirmation. entries are oldest first.
func Summarize(entries []Entry) Insights {
	if len(entries) == 0 {
		return Insights{}
	}

	latest := entries[len(entries)-1]
	return Insights{
		Spheres:     ranked(sphereCounts(entries), TopSpheres),
		Emotion:     latest.Emotion,
		Season:      latest.Season,
		Affirmation: latest.Affirmation,
		Entries:     len(entries),
	}
}

// String renders i as a single context line, or "" for no entries.
func (i Insights) String() string {
	if i.Entries == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Insights:")
	if len(i.Spheres) > 0 {
		sb.WriteString(" focus on " + strings.Join(i.Spheres, ", ") + ";")
	}
	fmt.Fprintf(&sb, " feeling %s; season of %s", i.Emotion, i.Season)
	if i.Affirmation != "" {
		fmt.Fprintf(&sb, "; affirmation: %q", i.Affirmation)
	}
	return sb.String()
}

// Card is the summary card included in a data export.
type Card struct {
	TotalEntries      int            `json:"total_entries"`
	SphereCounts      map[string]int `json:"sphere_counts"`
	EmotionCounts     map[string]int `json:"emotion_counts"`
	TopSpheres        []string       `json:"top_spheres"`
	DominantEmotion   string         `json:"dominant_emotion,omitempty"`
	DominantSeason    string         `json:"dominant_season,omitempty"`
	DominantMood      string         `json:"dominant_mood,omitempty"`
	LatestAffirmation string         `json:"latest_affirmation,omitempty"`
	FirstEntry        *time.Time     `json:"first_entry,omitempty"`
	LastEntry         *time.Time     `json:"last_entry,omitempty"`
}

// BuildCard summarizes every entry. entries are oldest first.
func BuildCard(entries []Entry) Card {
	card := Card{
		TotalEntries:  len(entries),
		SphereCounts:  sphereCounts(entries),
		EmotionCounts: map[string]int{},
		TopSpheres:    []string{},
	}
	if len(entries) == 0 {
		return card
	}

	seasons := map[string]int{}
	moods := map[string]int{}
	for _, e := range entries {
		card.EmotionCounts[e.Emotion]++
		seasons[e.Season]++
		moods[e.Mood]++
	}

	card.TopSpheres = ranked(card.SphereCounts, TopSpheres)
	card.DominantEmotion = first(ranked(card.EmotionCounts, 1))
	card.DominantSeason = first(ranked(seasons, 1))
	card.DominantMood = first(ranked(moods, 1))

	firstAt := entries[0].Timestamp
	lastAt := entries[len(entries)-1].Timestamp
	card.FirstEntry = &firstAt
	card.LastEntry = &lastAt
	card.LatestAffirmation = entries[len(entries)-1].Affirmation

	return card
}

func sphereCounts(entries []Entry) map[string]int {
	counts := map[string]int{}
	for _, e := range entries {
		for _, s := range e.Spheres {
			counts[s]++
		}
	}
	return counts
}

// ranked returns up to n keys by descending count, ties alphabetical.
func ranked(counts map[string]int, n int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		if counts[keys[a]] != counts[keys[b]] {
			return counts[keys[a]] > counts[keys[b]]
		}
		return keys[a] < keys[b]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

func first(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
