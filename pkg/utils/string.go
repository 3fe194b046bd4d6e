package utils

// Truncate shortens s to at most maxLen runes and appends "..." when it cut
// anything. Used for human-facing previews.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

// Clip shortens s to at most maxLen runes without any marker.
func Clip(s string, maxLen int) string {
	if maxLen < 0 {
		maxLen = 0
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen])
}
