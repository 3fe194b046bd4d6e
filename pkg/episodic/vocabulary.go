package episodic

// Closed label sets. The first label of each is the fallback for anything
// outside the set.
var (
	Emotions = []string{
		"neutral", "joyful", "grateful", "hopeful", "calm",
		"anxious", "sad", "frustrated", "lonely", "excited",
	}

	Seasons = []string{
		"steady", "growth", "transition", "rest", "challenge", "celebration",
	}

	Moods = []string{
		"balanced", "cozy", "vibrant", "minimalist", "adventurous", "romantic", "reflective",
	}
)

// DefaultAffirmation is the affirmation of NeutralEntry.
const DefaultAffirmation = "I am taking things one step at a time."

// Spheres maps each life sphere to the word stems that tag it. A word in the
// exchange tags a sphere when it starts with one of the stems.
var Spheres = map[string][]string{
	"health":        {"exercis", "workout", "gym", "run", "sleep", "diet", "doctor", "meditat", "yoga", "walk"},
	"career":        {"work", "job", "boss", "career", "promotion", "meeting", "project", "client", "interview"},
	"relationships": {"friend", "partner", "family", "mom", "dad", "wife", "husband", "date", "kids", "sister", "brother"},
	"finances":      {"money", "budget", "rent", "saving", "debt", "salary", "invest", "bill"},
	"growth":        {"learn", "read", "book", "course", "skill", "journal", "study", "habit"},
	"home":          {"house", "apartment", "clean", "garden", "cook", "decor", "kitchen"},
	"leisure":       {"travel", "hik", "movie", "music", "game", "vacation", "trip", "concert"},
	"spirituality":  {"pray", "faith", "church", "gratitud", "purpose", "spiritual", "mindful"},
}
