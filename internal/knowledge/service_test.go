package knowledge

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"samvartha/internal/resolve"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedBackend answers from a fixed map and counts invocations.
type scriptedBackend struct {
	name    string
	answers map[string]string
	err     error
	calls   atomic.Int32
}

func (b *scriptedBackend) Name() string { return b.name }

func (b *scriptedBackend) Resolve(ctx context.Context, query string) (string, bool, error) {
	b.calls.Add(1)
	if b.err != nil {
		return "", false, b.err
	}
	payload, ok := b.answers[query]
	return payload, ok, nil
}

func newTestLibrary(backends ...resolve.Backend) *Library {
	return NewLibrary(LibraryConfig{Backends: backends})
}

func TestRegisterExplicitDescription(t *testing.T) {
	lib := newTestLibrary()

	require.NoError(t, lib.Register(context.Background(), "Gardening", "Growing plants."))

	desc, err := lib.Resolve(context.Background(), "Gardening")
	require.NoError(t, err)
	assert.Equal(t, "Growing plants.", desc)
	assert.True(t, lib.Known("Gardening"))

	v, err := lib.Describe(context.Background(), "Gardening")
	require.NoError(t, err)
	assert.Equal(t, SourceExplicit, v.Source)
}

func TestRegisterExplicitOverwritesDerivedEntry(t *testing.T) {
	backend := &scriptedBackend{name: "lookup", answers: map[string]string{
		"Quantum Computing": "derived description",
	}}
	lib := newTestLibrary(backend)

	desc, err := lib.Resolve(context.Background(), "Quantum Computing")
	require.NoError(t, err)
	require.Equal(t, "derived description", desc)

	// An authoritative write replaces whatever the chain produced.
	require.NoError(t, lib.Register(context.Background(), "Quantum Computing", "the real definition"))

	v, err := lib.Describe(context.Background(), "Quantum Computing")
	require.NoError(t, err)
	assert.Equal(t, "the real definition", v.Payload)
	assert.Equal(t, SourceExplicit, v.Source)
	assert.Equal(t, int32(1), backend.calls.Load(), "the overwrite must not re-run the chain")
}

func TestRegisterBareNameIsNoOpWhenKnown(t *testing.T) {
	backend := &scriptedBackend{name: "lookup", answers: map[string]string{
		"Chess": "a board game",
	}}
	lib := newTestLibrary(backend)

	require.NoError(t, lib.Register(context.Background(), "Chess", ""))
	require.NoError(t, lib.Register(context.Background(), "Chess", ""))

	assert.Equal(t, int32(1), backend.calls.Load(), "re-registering a known task must not resolve again")
}

func TestRegisterEmptyNameRejected(t *testing.T) {
	lib := newTestLibrary()

	err := lib.Register(context.Background(), "   ", "anything")
	assert.ErrorIs(t, err, resolve.ErrEmptyQuery)
	assert.Equal(t, 0, lib.Size())
}

func TestResolveExhaustionReturnsNotFoundText(t *testing.T) {
	empty := &scriptedBackend{name: "lookup", answers: map[string]string{}}
	lib := newTestLibrary(empty)

	desc, err := lib.Resolve(context.Background(), "Nonexistent")
	require.NoError(t, err, "exhaustion is a value, not an error")
	assert.Equal(t, NotFoundText, desc)
	assert.False(t, lib.Known("Nonexistent"), "the not-found sentinel must never be cached")
}

func TestResolveChainScenario(t *testing.T) {
	// Reference lookup misses, profile A answers, profile B never runs.
	lookup := &scriptedBackend{name: "reference-lookup", answers: map[string]string{}}
	sumA := &scriptedBackend{name: SummarizerAName, answers: map[string]string{
		"Quantum Computing": "X",
	}}
	sumB := &scriptedBackend{name: SummarizerBName, answers: map[string]string{
		"Quantum Computing": "Y",
	}}
	lib := newTestLibrary(lookup, sumA, sumB)

	v, err := lib.Describe(context.Background(), "Quantum Computing")
	require.NoError(t, err)
	assert.Equal(t, "X", v.Payload)
	assert.Equal(t, SummarizerAName, v.Source)
	assert.Equal(t, int32(0), sumB.calls.Load())
}

func TestResolveSurvivesBackendFault(t *testing.T) {
	broken := &scriptedBackend{name: "reference-lookup", err: errors.New("network down")}
	sumA := &scriptedBackend{name: SummarizerAName, answers: map[string]string{
		"Sailing": "moving a boat with wind",
	}}
	lib := newTestLibrary(broken, sumA)

	desc, err := lib.Resolve(context.Background(), "Sailing")
	require.NoError(t, err)
	assert.Equal(t, "moving a boat with wind", desc)
}

func TestDetectAndRegister(t *testing.T) {
	backend := &scriptedBackend{name: "lookup", answers: map[string]string{
		"Learn":     "to acquire knowledge",
		"Quantum":   "smallest discrete unit",
		"Computing": "use of computers",
	}}
	lib := newTestLibrary(backend)

	tasks := lib.DetectAndRegister(context.Background(), "I want to Learn Quantum Computing now.")

	// Tokens of more than three characters survive; "I", "to", "now" do not.
	assert.Equal(t, []string{"want", "Learn", "Quantum", "Computing"}, tasks)
	assert.True(t, lib.Known("Quantum"))
	assert.True(t, lib.Known("Computing"))
	assert.False(t, lib.Known("want"), "unresolvable candidates stay out of the library")
}

func TestExpandRegistersBatch(t *testing.T) {
	backend := &scriptedBackend{name: "lookup", answers: map[string]string{
		"Cooking": "preparing food",
		"Singing": "producing musical sounds",
	}}
	lib := newTestLibrary(backend)

	lib.Expand(context.Background(), []string{"Cooking", "Singing", "Unknowable"})

	assert.Equal(t, 2, lib.Size())
	assert.ElementsMatch(t, []string{"Cooking", "Singing"}, lib.Tasks())
}

func TestPracticeHitsCacheAfterFirstIteration(t *testing.T) {
	backend := &scriptedBackend{name: "lookup", answers: map[string]string{
		"Juggling": "keeping objects in the air",
	}}
	lib := newTestLibrary(backend)

	results, err := lib.Practice(context.Background(), "Juggling", 5)
	require.NoError(t, err)
	require.Len(t, results, 5)

	for i, r := range results {
		assert.Equal(t, i+1, r.Iteration)
		assert.Equal(t, "keeping objects in the air", r.Payload)
	}
	assert.Equal(t, int32(1), backend.calls.Load(), "practice after the first hit must be served from cache")
}

func TestPracticeDefaultsToTenIterations(t *testing.T) {
	lib := newTestLibrary(&scriptedBackend{name: "lookup", answers: map[string]string{"T": "d"}})

	results, err := lib.Practice(context.Background(), "T", 0)
	require.NoError(t, err)
	assert.Len(t, results, 10)
}

func TestPracticeUnknownTaskReportsNotFound(t *testing.T) {
	lib := newTestLibrary(&scriptedBackend{name: "lookup", answers: map[string]string{}})

	results, err := lib.Practice(context.Background(), "Mystery", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, NotFoundText, r.Payload)
	}
}
