// Package reference implements the external reference lookup backend:
// a Wikipedia REST summary client, optionally wrapped in a persistent
// SQLite cache so repeated lookups survive process restarts. The
// in-memory resolution cache is the chain's concern; this package only
// keeps its own backend-level state.
package reference

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"samvartha/internal/logging"
)

// BackendName identifies this strategy in resolved values and logs.
const BackendName = "reference-lookup"

// Lookup queries the Wikipedia REST page-summary endpoint. An unknown
// page or an unreachable service yields an absent result, never a
// caller-visible failure; the chain logs the fault and moves on.
type Lookup struct {
	endpoint   string
	userAgent  string
	httpClient *http.Client
}

// LookupConfig holds configuration for the lookup client.
type LookupConfig struct {
	// Endpoint is the REST summary base URL, e.g.
	// https://en.wikipedia.org/api/rest_v1/page/summary
	Endpoint  string
	UserAgent string
	Timeout   time.Duration
}

// DefaultLookupConfig returns sensible defaults.
func DefaultLookupConfig() LookupConfig {
	return LookupConfig{
		Endpoint:  "https://en.wikipedia.org/api/rest_v1/page/summary",
		UserAgent: "Samvartha/1.0 (https://example.com; contact@example.com)",
		Timeout:   15 * time.Second,
	}
}

// NewLookup creates a lookup client.
func NewLookup(cfg LookupConfig) *Lookup {
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = DefaultLookupConfig().Endpoint
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultLookupConfig().UserAgent
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultLookupConfig().Timeout
	}
	return &Lookup{
		endpoint:   endpoint,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// pageSummary is the subset of the REST response we consume.
type pageSummary struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
	Type    string `json:"type"`
}

// Name implements resolve.Backend.
func (l *Lookup) Name() string { return BackendName }

// Resolve implements resolve.Backend. A 404 is an absent result; any
// transport or decode problem is a backend fault (which the chain
// contains), keeping the two cases distinguishable in logs.
func (l *Lookup) Resolve(ctx context.Context, query string) (string, bool, error) {
	title := url.PathEscape(strings.ReplaceAll(strings.TrimSpace(query), " ", "_"))
	reqURL := l.endpoint + "/" + title

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", l.userAgent)

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("summary request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		logging.ReferenceDebug("no page for %q", query)
		return "", false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("summary request for %q returned status %d", query, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false, fmt.Errorf("failed to read summary response: %w", err)
	}

	var summary pageSummary
	if err := json.Unmarshal(body, &summary); err != nil {
		return "", false, fmt.Errorf("failed to parse summary response: %w", err)
	}

	// Disambiguation pages have no usable single summary.
	if summary.Type == "disambiguation" || strings.TrimSpace(summary.Extract) == "" {
		logging.ReferenceDebug("page for %q has no usable extract (type=%s)", query, summary.Type)
		return "", false, nil
	}

	logging.Reference("summary fetched for %q (%d chars)", query, len(summary.Extract))
	return summary.Extract, true, nil
}
