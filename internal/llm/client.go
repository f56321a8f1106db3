// Package llm provides clients for the generative model providers used
// by the summarizer and interpretation backends. Clients are plain HTTP
// wrappers: one request, one completion, explicit errors. Concurrency
// control and fallback ordering live in the resolution chain, not here.
package llm

import (
	"context"
	"errors"
)

// Client defines the interface for generative model providers.
type Client interface {
	// Complete sends a prompt and returns the completion.
	Complete(ctx context.Context, prompt string) (string, error)

	// CompleteWithSystem sends a prompt with a system message.
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// Model returns the model identifier, used as audit metadata.
	Model() string
}

// ErrNoAPIKey is returned by the factory when a provider has no key
// configured. Callers degrade gracefully: a backend without a client
// reports absent instead of faulting the whole service.
var ErrNoAPIKey = errors.New("llm: API key not configured")
