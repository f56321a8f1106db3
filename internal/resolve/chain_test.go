package resolve

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// countingBackend is an instrumented backend for verifying invocation
// counts and chain ordering.
type countingBackend struct {
	name    string
	payload string
	ok      bool
	err     error
	delay   time.Duration
	calls   atomic.Int32
}

func (b *countingBackend) Name() string { return b.name }

func (b *countingBackend) Resolve(ctx context.Context, query string) (string, bool, error) {
	b.calls.Add(1)
	if b.delay > 0 {
		select {
		case <-time.After(b.delay):
		case <-ctx.Done():
			return "", false, ctx.Err()
		}
	}
	return b.payload, b.ok, b.err
}

func newChain(t *testing.T, cfg ChainConfig, backends ...Backend) *Chain {
	t.Helper()
	return NewChain(NewCache(), backends, cfg)
}

func TestResolveCacheIdempotence(t *testing.T) {
	b := &countingBackend{name: "b1", payload: "answer", ok: true}
	chain := newChain(t, ChainConfig{Name: "test"}, b)

	first, err := chain.Resolve(context.Background(), "q")
	require.NoError(t, err)
	require.True(t, first.IsResolved())

	second, err := chain.Resolve(context.Background(), "q")
	require.NoError(t, err)

	assert.Equal(t, first, second, "second call must return the cached value verbatim")
	assert.Equal(t, int32(1), b.calls.Load(), "no backend may run on a cache hit")
}

func TestResolvePriorityOrdering(t *testing.T) {
	b1 := &countingBackend{name: "b1", payload: "first", ok: true}
	b2 := &countingBackend{name: "b2", payload: "second", ok: true}
	b3 := &countingBackend{name: "b3", payload: "third", ok: true}
	chain := newChain(t, ChainConfig{Name: "test"}, b1, b2, b3)

	v, err := chain.Resolve(context.Background(), "q")
	require.NoError(t, err)

	assert.Equal(t, "first", v.Payload)
	assert.Equal(t, "b1", v.Source)
	assert.Equal(t, int32(0), b2.calls.Load(), "lower-priority backends must not run after a success")
	assert.Equal(t, int32(0), b3.calls.Load())
}

func TestResolveFaultIsolation(t *testing.T) {
	b1 := &countingBackend{name: "b1", err: errors.New("service unreachable")}
	b2 := &countingBackend{name: "b2", payload: "recovered", ok: true}
	chain := newChain(t, ChainConfig{Name: "test"}, b1, b2)

	v, err := chain.Resolve(context.Background(), "q")
	require.NoError(t, err, "backend faults must never propagate to the caller")

	assert.Equal(t, "recovered", v.Payload)
	assert.Equal(t, "b2", v.Source)
	assert.Equal(t, int32(1), b1.calls.Load())
}

func TestResolveUnresolvedNotCached(t *testing.T) {
	b := &countingBackend{name: "b1", ok: false}
	chain := newChain(t, ChainConfig{Name: "test"}, b)

	v, err := chain.Resolve(context.Background(), "q")
	require.NoError(t, err)
	assert.False(t, v.IsResolved())
	assert.False(t, chain.Cache().Contains("q"))

	// A retry re-invokes the full chain.
	b.payload, b.ok = "late answer", true
	v, err = chain.Resolve(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "late answer", v.Payload)
	assert.Equal(t, int32(2), b.calls.Load())
}

func TestResolveEmptyPayloadTreatedAsMiss(t *testing.T) {
	b1 := &countingBackend{name: "b1", payload: "   ", ok: true}
	b2 := &countingBackend{name: "b2", payload: "real", ok: true}
	chain := newChain(t, ChainConfig{Name: "test"}, b1, b2)

	v, err := chain.Resolve(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "b2", v.Source)
}

func TestResolveEmptyQueryRejected(t *testing.T) {
	b := &countingBackend{name: "b1", payload: "x", ok: true}
	chain := newChain(t, ChainConfig{Name: "test"}, b)

	for _, q := range []string{"", "   ", "\t\n"} {
		v, err := chain.Resolve(context.Background(), q)
		assert.ErrorIs(t, err, ErrEmptyQuery)
		assert.False(t, v.IsResolved())
	}
	assert.Equal(t, int32(0), b.calls.Load(), "malformed queries must be rejected before the chain")
}

func TestResolveBackendTimeoutAdvancesChain(t *testing.T) {
	slow := &countingBackend{name: "slow", payload: "too late", ok: true, delay: 500 * time.Millisecond}
	fast := &countingBackend{name: "fast", payload: "in time", ok: true}
	chain := newChain(t, ChainConfig{Name: "test", BackendTimeout: 20 * time.Millisecond}, slow, fast)

	v, err := chain.Resolve(context.Background(), "q")
	require.NoError(t, err, "a backend timeout is a backend fault, not a caller error")
	assert.Equal(t, "fast", v.Source)
}

func TestResolveSingleFlight(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := &countingBackend{name: "b1", payload: "answer", ok: true, delay: 50 * time.Millisecond}
	chain := newChain(t, ChainConfig{Name: "test"}, b)

	const callers = 16
	var wg sync.WaitGroup
	results := make([]Value, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = chain.Resolve(context.Background(), "q")
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "answer", results[i].Payload)
	}
	assert.Equal(t, int32(1), b.calls.Load(),
		"concurrent callers of one unresolved query must share a single attempt")
}

func TestResolveCancellationReleasesWaiters(t *testing.T) {
	defer goleak.VerifyNone(t)

	// Backend blocks until its context is done.
	blocking := BackendFn("blocking", func(ctx context.Context, query string) (string, bool, error) {
		<-ctx.Done()
		return "", false, ctx.Err()
	})
	chain := newChain(t, ChainConfig{Name: "test"}, blocking)

	ctx, cancel := context.WithCancel(context.Background())

	leaderErr := make(chan error, 1)
	go func() {
		_, err := chain.Resolve(ctx, "q")
		leaderErr <- err
	}()

	// Give the leader time to enter the flight, then pile on waiters.
	time.Sleep(10 * time.Millisecond)
	var wg sync.WaitGroup
	waiterErrs := make([]error, 4)
	for i := range waiterErrs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, waiterErrs[i] = chain.Resolve(context.Background(), "q")
		}(i)
	}
	time.Sleep(10 * time.Millisecond)
	cancel()

	require.ErrorIs(t, <-leaderErr, context.Canceled)
	wg.Wait()
	for _, err := range waiterErrs {
		assert.ErrorIs(t, err, context.Canceled,
			"cancellation must release all waiters with the triggering fault")
	}
	assert.False(t, chain.Cache().Contains("q"))
}

func TestResolveScenarioChainOfFour(t *testing.T) {
	// [explicit, external-lookup(absent), summarizerA("X"), summarizerB("Y")]
	explicit := &countingBackend{name: "explicit", ok: false}
	lookup := &countingBackend{name: "external-lookup", ok: false}
	sumA := &countingBackend{name: "summarizer-a", payload: "X", ok: true}
	sumB := &countingBackend{name: "summarizer-b", payload: "Y", ok: true}
	chain := newChain(t, ChainConfig{Name: "test"}, explicit, lookup, sumA, sumB)

	v, err := chain.Resolve(context.Background(), "Quantum Computing")
	require.NoError(t, err)
	assert.Equal(t, "X", v.Payload)
	assert.Equal(t, "summarizer-a", v.Source)
	assert.Equal(t, int32(0), sumB.calls.Load(), "summarizer B must never be invoked")
}

func TestResolveQueriesAreCaseSensitive(t *testing.T) {
	b := &countingBackend{name: "b1", payload: "answer", ok: true}
	chain := newChain(t, ChainConfig{Name: "test"}, b)

	_, err := chain.Resolve(context.Background(), "Task")
	require.NoError(t, err)
	_, err = chain.Resolve(context.Background(), "task")
	require.NoError(t, err)

	assert.Equal(t, int32(2), b.calls.Load(), "the core performs no query normalization")
}
