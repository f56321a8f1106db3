package interpret

import (
	"strings"
	"unicode"
)

// TokenTag is one token with its part-of-speech tag.
type TokenTag struct {
	Token string `json:"token"`
	Tag   string `json:"tag"`
}

// Part-of-speech tags emitted by the lexicon tagger.
const (
	TagVerb    = "VERB"
	TagNoun    = "NOUN"
	TagDet     = "DET"
	TagPron    = "PRON"
	TagAdp     = "ADP"
	TagNum     = "NUM"
	TagWh      = "WH"
	TagUnknown = "UNK"
)

// Tagger annotates command tokens with part-of-speech tags from a
// small fixed lexicon. The output is observational: it feeds logs and
// the inspect probe, never an intent on its own.
type Tagger struct {
	lexicon map[string]string
}

// NewTagger returns a tagger over the built-in command lexicon.
func NewTagger() *Tagger {
	return &Tagger{lexicon: map[string]string{
		"play": TagVerb, "pause": TagVerb, "stop": TagVerb, "resume": TagVerb,
		"skip": TagVerb, "learn": TagVerb, "practice": TagVerb, "is": TagVerb,

		"song": TagNoun, "music": TagNoun, "track": TagNoun, "task": TagNoun,
		"weather": TagNoun, "volume": TagNoun, "playlist": TagNoun,

		"the": TagDet, "a": TagDet, "an": TagDet, "this": TagDet, "that": TagDet,

		"i": TagPron, "you": TagPron, "it": TagPron, "me": TagPron,

		"to": TagAdp, "of": TagAdp, "in": TagAdp, "on": TagAdp,
		"for": TagAdp, "with": TagAdp, "now": TagAdp,

		"what": TagWh, "which": TagWh, "when": TagWh, "where": TagWh, "how": TagWh,
	}}
}

// Tag annotates every whitespace token of command. Lookup is
// case-insensitive; purely numeric tokens tag as NUM; everything
// outside the lexicon tags as UNK.
func (t *Tagger) Tag(command string) []TokenTag {
	fields := strings.Fields(command)
	tags := make([]TokenTag, 0, len(fields))
	for _, token := range fields {
		word := strings.Trim(token, ".,;:!?\"'()")
		if word == "" {
			continue
		}
		tags = append(tags, TokenTag{Token: word, Tag: t.tagOf(word)})
	}
	return tags
}

func (t *Tagger) tagOf(word string) string {
	if isNumeric(word) {
		return TagNum
	}
	if tag, ok := t.lexicon[strings.ToLower(word)]; ok {
		return tag
	}
	return TagUnknown
}

func isNumeric(word string) bool {
	for _, r := range word {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(word) > 0
}
