// Package resolve implements the chained resolution engine: an ordered
// list of fallible backends tried in strict priority order, with a
// memoizing cache in front of the chain.
//
// Architecture:
//
//	Query: "Quantum Computing"
//	     |
//	Chain.Resolve()
//	     |
//	1. Cache hit? Return the cached value verbatim, no backend runs.
//	2. Otherwise walk the backend list in order; the first backend
//	   producing a non-empty payload wins and is cached.
//	3. A backend fault is logged and skipped, never surfaced.
//	4. Total exhaustion returns an unresolved value, which is NOT
//	   cached so a later retry can succeed.
package resolve

import "context"

// Backend is one resolution strategy: a fallible function from query to
// optional payload.
//
// Return conventions:
//   - payload, true, nil: the backend succeeded.
//   - "", false, nil: the backend has no answer (absent, not an error).
//   - _, _, err: the backend faulted. The chain treats a fault exactly
//     like an absent result, logging it and moving on.
type Backend interface {
	// Name identifies the strategy; it is recorded as the source of any
	// value it resolves.
	Name() string

	Resolve(ctx context.Context, query string) (payload string, ok bool, err error)
}

type backendFunc struct {
	name string
	fn   func(ctx context.Context, query string) (string, bool, error)
}

// BackendFn adapts a plain function to the Backend interface.
func BackendFn(name string, fn func(ctx context.Context, query string) (string, bool, error)) Backend {
	return &backendFunc{name: name, fn: fn}
}

func (b *backendFunc) Name() string { return b.name }

func (b *backendFunc) Resolve(ctx context.Context, query string) (string, bool, error) {
	return b.fn(ctx, query)
}
