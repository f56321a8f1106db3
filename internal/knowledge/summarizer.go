package knowledge

import (
	"context"
	"fmt"
	"strings"

	"samvartha/internal/config"
	"samvartha/internal/llm"
	"samvartha/internal/logging"
)

// Backend names for the two summarizer profiles. A is tried before B.
const (
	SummarizerAName = "summarizer-a"
	SummarizerBName = "summarizer-b"
)

const summarizerSystemPrompt = "You are a task librarian. Describe tasks and concepts in plain, factual prose. Respond with the description only: no preamble, no markdown headings, no disclaimers."

// Summarizer is a generative description backend: it asks a model to
// describe the queried task. Two instances with different profiles
// (model, length bounds) fill the A and B slots of the knowledge chain.
type Summarizer struct {
	name     string
	client   llm.Client
	maxWords int
	minWords int
}

// NewSummarizer builds a summarizer backend. A nil client is allowed
// and makes the backend permanently absent, so a missing API key
// degrades the chain instead of breaking service construction.
func NewSummarizer(name string, client llm.Client, profile config.SummarizerProfile) *Summarizer {
	maxWords := profile.MaxWords
	if maxWords <= 0 {
		maxWords = 150
	}
	minWords := profile.MinWords
	if minWords <= 0 || minWords > maxWords {
		minWords = maxWords / 4
	}
	return &Summarizer{
		name:     name,
		client:   client,
		maxWords: maxWords,
		minWords: minWords,
	}
}

// Name implements resolve.Backend.
func (s *Summarizer) Name() string { return s.name }

// Resolve implements resolve.Backend.
func (s *Summarizer) Resolve(ctx context.Context, query string) (string, bool, error) {
	if s.client == nil {
		logging.KnowledgeDebug("%s unavailable (no client), skipping %q", s.name, query)
		return "", false, nil
	}

	prompt := fmt.Sprintf("Describe the task or concept %q in %d to %d words.", query, s.minWords, s.maxWords)

	out, err := s.client.CompleteWithSystem(ctx, summarizerSystemPrompt, prompt)
	if err != nil {
		return "", false, fmt.Errorf("%s (%s): %w", s.name, s.client.Model(), err)
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return "", false, nil
	}

	// The length bound is a contract, not a hint: enforce it even when
	// the model ignores the prompt.
	words := strings.Fields(out)
	if len(words) > s.maxWords {
		out = strings.Join(words[:s.maxWords], " ")
	}

	logging.Knowledge("%s generated description for %q (%d words)", s.name, query, len(strings.Fields(out)))
	return out, true, nil
}
