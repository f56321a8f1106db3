package resolve

import (
	"context"
	"errors"
	"strings"
	"time"

	"samvartha/internal/logging"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// ErrEmptyQuery rejects a blank query before the chain runs. This is
// the only caller-visible error for a well-formed chain: exhaustion is
// reported as an unresolved value, not an error.
var ErrEmptyQuery = errors.New("resolve: empty query")

// ChainConfig holds chain construction options.
type ChainConfig struct {
	// Name labels the chain in logs and audit events (e.g. "task-knowledge").
	Name string

	// BackendTimeout bounds each individual backend invocation. Zero
	// means no per-backend bound; a timeout is treated exactly like a
	// backend fault (advance to the next entry).
	BackendTimeout time.Duration

	// LogCategory selects the log file; defaults to the resolve category.
	LogCategory logging.Category
}

// Chain resolves queries against a fixed, priority-ordered backend
// list, using the cache as a short-circuit. Ordering encodes a
// cost/quality gradient: free or exact sources first, generative
// inference last. The backend list is fixed at construction; there is
// no dynamic reordering.
type Chain struct {
	name     string
	backends []Backend
	cache    *Cache
	timeout  time.Duration
	category logging.Category
	audit    *logging.AuditLogger
	group    singleflight.Group
}

// NewChain creates a chain over cache and backends. The cache must not
// be nil; sharing one cache between chains is allowed but unusual.
func NewChain(cache *Cache, backends []Backend, cfg ChainConfig) *Chain {
	name := cfg.Name
	if name == "" {
		name = "chain"
	}
	category := cfg.LogCategory
	if category == "" {
		category = logging.CategoryResolve
	}
	return &Chain{
		name:     name,
		backends: backends,
		cache:    cache,
		timeout:  cfg.BackendTimeout,
		category: category,
		audit:    logging.AuditFor(name),
	}
}

// Cache exposes the chain's cache for direct authoritative writes
// (explicit descriptions bypass the backend list entirely).
func (c *Chain) Cache() *Cache {
	return c.cache
}

// Backends returns the number of chain entries.
func (c *Chain) Backends() int {
	return len(c.backends)
}

// Resolve resolves one query.
//
// A cached query is returned verbatim without invoking any backend;
// this is an invariant, not an optimization. On a miss, concurrent
// callers of the same query share a single in-flight traversal: later
// callers wait on the first attempt's result rather than triggering
// duplicate backend invocations. Cancellation of the in-flight attempt
// releases all waiters with an unresolved value and the triggering
// fault.
func (c *Chain) Resolve(ctx context.Context, query string) (Value, error) {
	if strings.TrimSpace(query) == "" {
		return Unresolved(), ErrEmptyQuery
	}

	if v, ok := c.cache.Get(query); ok {
		logging.Get(c.category).Debug("[%s] cache hit for %q (source=%s)", c.name, query, v.Source)
		c.audit.CacheHit(query, v.Source)
		return v, nil
	}

	res, err, shared := c.group.Do(query, func() (interface{}, error) {
		// A concurrent caller may have completed the resolution between
		// our cache check and joining the flight.
		if v, ok := c.cache.Get(query); ok {
			return v, nil
		}
		return c.traverse(ctx, query)
	})
	if shared {
		logging.Get(c.category).Debug("[%s] shared in-flight resolution for %q", c.name, query)
	}
	if err != nil {
		return Unresolved(), err
	}
	return res.(Value), nil
}

// traverse walks the backend list in priority order. It returns an
// error only for caller cancellation; backend faults are contained.
func (c *Chain) traverse(ctx context.Context, query string) (Value, error) {
	resolutionID := uuid.NewString()
	log := logging.WithRequestID(c.category, resolutionID)
	start := time.Now()

	log.Info("[%s] resolving %q across %d backends", c.name, query, len(c.backends))
	c.audit.ResolutionStart(resolutionID, query)

	for _, b := range c.backends {
		if err := ctx.Err(); err != nil {
			log.Warn("[%s] resolution of %q cancelled: %v", c.name, query, err)
			return Unresolved(), err
		}

		payload, ok, err := c.invoke(ctx, b, query)
		if err != nil {
			// Caller cancellation aborts the chain; a backend's own
			// fault (including its timeout) only advances it.
			if ctx.Err() != nil {
				log.Warn("[%s] resolution of %q cancelled during %q: %v", c.name, query, b.Name(), ctx.Err())
				return Unresolved(), ctx.Err()
			}
			log.Warn("[%s] backend %q faulted for %q: %v", c.name, b.Name(), query, err)
			c.audit.BackendFault(resolutionID, query, b.Name(), err)
			continue
		}
		if !ok || strings.TrimSpace(payload) == "" {
			log.Debug("[%s] backend %q has no result for %q", c.name, b.Name(), query)
			c.audit.BackendMiss(resolutionID, query, b.Name())
			continue
		}

		v := NewValue(payload, b.Name())
		c.cache.Put(query, v)
		elapsed := time.Since(start)
		log.Info("[%s] resolved %q via %q in %v", c.name, query, b.Name(), elapsed)
		c.audit.Resolved(resolutionID, query, b.Name(), elapsed.Milliseconds())
		return v, nil
	}

	elapsed := time.Since(start)
	log.Info("[%s] no backend resolved %q (%d tried, %v)", c.name, query, len(c.backends), elapsed)
	c.audit.Unresolved(resolutionID, query, elapsed.Milliseconds())
	return Unresolved(), nil
}

// invoke runs one backend, applying the per-backend timeout if set.
func (c *Chain) invoke(ctx context.Context, b Backend, query string) (string, bool, error) {
	if c.timeout <= 0 {
		return b.Resolve(ctx, query)
	}
	bctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	payload, ok, err := b.Resolve(bctx, query)
	if err == nil && bctx.Err() != nil && ctx.Err() == nil {
		// Backend swallowed its deadline; surface it as a fault.
		err = bctx.Err()
	}
	return payload, ok, err
}
