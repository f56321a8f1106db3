package knowledge

import "strings"

// Extractor finds candidate task names in free text. It is a pluggable
// strategy: the default token heuristic below is an acknowledged
// placeholder, kept behind this interface so a real extraction model
// can replace it without touching the resolution engine.
type Extractor interface {
	Extract(input string) []string
}

// TokenExtractor keeps whitespace-delimited tokens strictly longer than
// MinLen runes, after trimming surrounding punctuation. Duplicates are
// dropped, first occurrence wins.
type TokenExtractor struct {
	// MinLen is the length a token must exceed to count as a task name.
	MinLen int
}

// DefaultExtractor returns the placeholder heuristic with its
// historical threshold (tokens longer than 3 characters).
func DefaultExtractor() TokenExtractor {
	return TokenExtractor{MinLen: 3}
}

// Extract implements Extractor.
func (e TokenExtractor) Extract(input string) []string {
	seen := make(map[string]bool)
	var tasks []string
	for _, token := range strings.Fields(input) {
		token = strings.Trim(token, ".,;:!?\"'()")
		if len([]rune(token)) <= e.MinLen {
			continue
		}
		if seen[token] {
			continue
		}
		seen[token] = true
		tasks = append(tasks, token)
	}
	return tasks
}
