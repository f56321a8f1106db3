package knowledge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"samvartha/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClient is a canned llm.Client.
type stubClient struct {
	reply string
	err   error
}

func (s *stubClient) Complete(ctx context.Context, prompt string) (string, error) {
	return s.reply, s.err
}

func (s *stubClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return s.reply, s.err
}

func (s *stubClient) Model() string { return "stub-model" }

func TestSummarizerGeneratesDescription(t *testing.T) {
	s := NewSummarizer(SummarizerAName, &stubClient{reply: "  A concise description.  "}, config.SummarizerProfile{MaxWords: 50})

	payload, ok, err := s.Resolve(context.Background(), "Quantum Computing")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "A concise description.", payload)
}

func TestSummarizerNilClientIsAbsent(t *testing.T) {
	s := NewSummarizer(SummarizerBName, nil, config.SummarizerProfile{})

	_, ok, err := s.Resolve(context.Background(), "Anything")
	require.NoError(t, err, "a missing client is absence, never a fault")
	assert.False(t, ok)
}

func TestSummarizerProviderErrorIsFault(t *testing.T) {
	s := NewSummarizer(SummarizerAName, &stubClient{err: errors.New("rate limited")}, config.SummarizerProfile{})

	_, ok, err := s.Resolve(context.Background(), "Anything")
	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), SummarizerAName)
	assert.Contains(t, err.Error(), "stub-model")
}

func TestSummarizerEmptyReplyIsAbsent(t *testing.T) {
	s := NewSummarizer(SummarizerAName, &stubClient{reply: "   "}, config.SummarizerProfile{})

	_, ok, err := s.Resolve(context.Background(), "Anything")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSummarizerTruncatesOverlongReply(t *testing.T) {
	long := strings.Repeat("word ", 40)
	s := NewSummarizer(SummarizerAName, &stubClient{reply: long}, config.SummarizerProfile{MaxWords: 10})

	payload, ok, err := s.Resolve(context.Background(), "Anything")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, strings.Fields(payload), 10)
}
