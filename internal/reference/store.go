package reference

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"samvartha/internal/logging"
	"samvartha/internal/resolve"

	_ "modernc.org/sqlite"
)

// CachedLookup decorates a lookup backend with a persistent SQLite
// cache, so summaries fetched in earlier runs are served without
// touching the network. It is itself a resolve.Backend and keeps the
// wrapped backend's name, since the payload ultimately comes from it.
//
// Only successful lookups are persisted. Absent results and faults are
// not, matching the chain's unresolved-not-cached contract.
type CachedLookup struct {
	db     *sql.DB
	next   resolve.Backend
	dbPath string
	mu     sync.RWMutex
}

// NewCachedLookup creates or opens the persistent lookup cache at
// dbPath and wraps next with it.
func NewCachedLookup(dbPath string, next resolve.Backend) (*CachedLookup, error) {
	timer := logging.StartTimer(logging.CategoryReference, "NewCachedLookup")
	defer timer.Stop()

	if dbPath == "" {
		return nil, fmt.Errorf("database path required")
	}
	if next == nil {
		return nil, fmt.Errorf("wrapped backend required")
	}

	logging.Reference("Initializing lookup cache at: %s", dbPath)

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logging.Get(logging.CategoryReference).Error("Failed to create directory %s: %v", dir, err)
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to verify database connection: %w", err)
	}

	store := &CachedLookup{
		db:     db,
		next:   next,
		dbPath: dbPath,
	}

	if err := store.initializeSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Reference("Lookup cache initialized successfully")
	return store, nil
}

// initializeSchema creates the summaries table.
func (s *CachedLookup) initializeSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reference_summaries (
		query TEXT PRIMARY KEY,
		summary TEXT NOT NULL,
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_reference_fetched ON reference_summaries(fetched_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create summaries table: %w", err)
	}
	return nil
}

// Name implements resolve.Backend.
func (s *CachedLookup) Name() string { return s.next.Name() }

// Resolve implements resolve.Backend: serve from SQLite when possible,
// otherwise delegate and persist a successful result.
func (s *CachedLookup) Resolve(ctx context.Context, query string) (string, bool, error) {
	if summary, ok := s.load(ctx, query); ok {
		logging.ReferenceDebug("lookup cache hit for %q", query)
		return summary, true, nil
	}

	payload, ok, err := s.next.Resolve(ctx, query)
	if err != nil || !ok {
		return payload, ok, err
	}

	if storeErr := s.save(ctx, query, payload); storeErr != nil {
		// Persistence trouble must not fail a successful lookup.
		logging.Get(logging.CategoryReference).Warn("failed to persist summary for %q: %v", query, storeErr)
	}
	return payload, true, nil
}

// load fetches a persisted summary.
func (s *CachedLookup) load(ctx context.Context, query string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var summary string
	err := s.db.QueryRowContext(ctx,
		`SELECT summary FROM reference_summaries WHERE query = ?`, query).Scan(&summary)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logging.Get(logging.CategoryReference).Warn("lookup cache read failed for %q: %v", query, err)
		}
		return "", false
	}
	return summary, true
}

// save persists a summary, overwriting any previous row.
func (s *CachedLookup) save(ctx context.Context, query, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reference_summaries (query, summary, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(query) DO UPDATE SET summary = excluded.summary, fetched_at = excluded.fetched_at`,
		query, summary, time.Now().UTC())
	return err
}

// Count returns the number of persisted summaries.
func (s *CachedLookup) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reference_summaries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count summaries: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *CachedLookup) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
