// Package knowledge implements the task knowledge service: a library of
// task descriptions resolved through a fallback chain of backends
// (external reference lookup, then two generative summarizer profiles)
// with explicit descriptions as the authoritative short-circuit.
package knowledge

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"samvartha/internal/config"
	"samvartha/internal/llm"
	"samvartha/internal/logging"
	"samvartha/internal/reference"
	"samvartha/internal/resolve"
)

// SourceExplicit tags cache entries written by an authoritative
// register rather than a chain backend.
const SourceExplicit = "explicit"

// NotFoundText is returned when no backend can describe a task. Callers
// treat every task as eventually describable, so exhaustion is a value,
// not an error.
const NotFoundText = "Task not found in the library."

// chainName labels the knowledge chain in logs and audit events.
const chainName = "task-knowledge"

// Library is the task knowledge service. It owns its cache and chain;
// recreating the library is the only way to reset acquired knowledge.
type Library struct {
	cache     *resolve.Cache
	chain     *resolve.Chain
	extractor Extractor
	audit     *logging.AuditLogger
}

// LibraryConfig holds construction options.
type LibraryConfig struct {
	// Backends in priority order. Explicit descriptions do not appear
	// here; they are written straight to the cache by Register.
	Backends []resolve.Backend

	// Extractor for DetectAndRegister; nil uses the token heuristic.
	Extractor Extractor

	// BackendTimeout bounds each backend invocation (0 = unbounded).
	BackendTimeout time.Duration
}

// NewLibrary creates a library over the given backends.
func NewLibrary(cfg LibraryConfig) *Library {
	extractor := cfg.Extractor
	if extractor == nil {
		extractor = DefaultExtractor()
	}

	cache := resolve.NewCache()
	chain := resolve.NewChain(cache, cfg.Backends, resolve.ChainConfig{
		Name:           chainName,
		BackendTimeout: cfg.BackendTimeout,
		LogCategory:    logging.CategoryKnowledge,
	})

	logging.Knowledge("library created with %d backends", chain.Backends())

	return &Library{
		cache:     cache,
		chain:     chain,
		extractor: extractor,
		audit:     logging.AuditFor(chainName),
	}
}

// NewLibraryFromConfig assembles the standard chain from user config:
// reference lookup (persistently cached when configured), then
// summarizer profiles A and B. Providers without API keys yield
// summarizers that report absent, keeping the rest of the chain usable.
func NewLibraryFromConfig(cfg *config.UserConfig, workspace string) (*Library, func() error, error) {
	refCfg := cfg.GetReference()
	var lookupBackend resolve.Backend = reference.NewLookup(reference.LookupConfig{
		Endpoint: refCfg.Endpoint,
	})

	closer := func() error { return nil }
	if refCfg.CachePath != "" {
		dbPath := refCfg.CachePath
		if !filepath.IsAbs(dbPath) {
			dbPath = filepath.Join(workspace, dbPath)
		}
		cached, err := reference.NewCachedLookup(dbPath, lookupBackend)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open reference cache: %w", err)
		}
		lookupBackend = cached
		closer = cached.Close
	}

	backends := []resolve.Backend{
		lookupBackend,
		newSummarizerFromConfig(SummarizerAName, cfg, cfg.GetSummarizerA()),
		newSummarizerFromConfig(SummarizerBName, cfg, cfg.GetSummarizerB()),
	}

	lib := NewLibrary(LibraryConfig{
		Backends:       backends,
		Extractor:      TokenExtractor{MinLen: cfg.GetKnowledge().ExtractorMinTokenLen},
		BackendTimeout: cfg.BackendTimeout(),
	})
	return lib, closer, nil
}

func newSummarizerFromConfig(name string, cfg *config.UserConfig, profile config.SummarizerProfile) *Summarizer {
	client, err := llm.FromProfile(cfg, profile)
	if err != nil {
		logging.Get(logging.CategoryKnowledge).Warn("%s disabled: %v", name, err)
		client = nil
	}
	return NewSummarizer(name, client, profile)
}

// Register adds a task to the library.
//
// With a description, the write is authoritative: it lands in the cache
// tagged as explicit and OVERWRITES any earlier entry, including one a
// fallback backend produced. With an empty description, a known name is
// a no-op and an unknown name is resolved through the chain.
func (l *Library) Register(ctx context.Context, name, description string) error {
	if strings.TrimSpace(name) == "" {
		return resolve.ErrEmptyQuery
	}

	if description != "" {
		overwrote := l.cache.Contains(name)
		l.cache.Put(name, resolve.NewValue(description, SourceExplicit))
		l.audit.ExplicitRegister(name, overwrote)
		logging.Knowledge("task registered: %q (explicit description, overwrote=%v)", name, overwrote)
		return nil
	}

	if l.cache.Contains(name) {
		logging.KnowledgeDebug("task %q already known, bare register is a no-op", name)
		return nil
	}

	v, err := l.chain.Resolve(ctx, name)
	if err != nil {
		return err
	}
	if v.IsResolved() {
		logging.Knowledge("task registered: %q (resolved via %s)", name, v.Source)
	} else {
		logging.Knowledge("task %q could not be described by any backend", name)
	}
	return nil
}

// Resolve returns the description for a task, running the chain on a
// cache miss. Exhaustion returns NotFoundText rather than an error.
func (l *Library) Resolve(ctx context.Context, name string) (string, error) {
	v, err := l.Describe(ctx, name)
	if err != nil {
		return "", err
	}
	if !v.IsResolved() {
		return NotFoundText, nil
	}
	return v.Payload, nil
}

// Describe is Resolve with source metadata, for callers that report
// where a description came from.
func (l *Library) Describe(ctx context.Context, name string) (resolve.Value, error) {
	return l.chain.Resolve(ctx, name)
}

// DetectAndRegister extracts candidate task names from free text and
// registers each. Returns the extracted names. Individual resolution
// failures do not abort the batch.
func (l *Library) DetectAndRegister(ctx context.Context, freeText string) []string {
	logging.Knowledge("detecting tasks from input (%d chars)", len(freeText))

	tasks := l.extractor.Extract(freeText)
	l.audit.Log(logging.AuditEvent{
		EventType: logging.AuditBulkDetect,
		Query:     freeText,
		Success:   true,
		Message:   fmt.Sprintf("candidates=%d", len(tasks)),
	})

	for _, task := range tasks {
		if err := l.Register(ctx, task, ""); err != nil {
			logging.Get(logging.CategoryKnowledge).Warn("bulk register of %q failed: %v", task, err)
		}
	}
	return tasks
}

// Expand registers a batch of task names without descriptions.
func (l *Library) Expand(ctx context.Context, names []string) {
	logging.Knowledge("expanding library with %d tasks", len(names))
	for _, name := range names {
		if err := l.Register(ctx, name, ""); err != nil {
			logging.Get(logging.CategoryKnowledge).Warn("expand register of %q failed: %v", name, err)
		}
	}
}

// PracticeResult records one practice iteration.
type PracticeResult struct {
	Iteration int
	Payload   string
	Source    string
}

// Practice resolves a task repeatedly. After the first successful
// iteration every subsequent one is a cache hit, so practicing is cheap
// by construction.
func (l *Library) Practice(ctx context.Context, name string, iterations int) ([]PracticeResult, error) {
	if iterations <= 0 {
		iterations = 10
	}
	logging.Knowledge("practicing task %q for %d iterations", name, iterations)

	results := make([]PracticeResult, 0, iterations)
	for i := 0; i < iterations; i++ {
		v, err := l.chain.Resolve(ctx, name)
		if err != nil {
			return results, err
		}
		payload := v.Payload
		if !v.IsResolved() {
			payload = NotFoundText
		}
		results = append(results, PracticeResult{
			Iteration: i + 1,
			Payload:   payload,
			Source:    v.Source,
		})
	}
	return results, nil
}

// Known reports whether a task already has a cached description.
func (l *Library) Known(name string) bool {
	return l.cache.Contains(name)
}

// Size returns the number of described tasks.
func (l *Library) Size() int {
	return l.cache.Len()
}

// Tasks returns the names of all described tasks.
func (l *Library) Tasks() []string {
	return l.cache.Keys()
}
