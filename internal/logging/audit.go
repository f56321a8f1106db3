// Package logging - audit trail for resolution attempts.
// Audit logs are structured JSONL events describing how each query moved
// through a backend chain: cache hits, backend misses and faults, the
// backend that finally won, and explicit overrides.
package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// =============================================================================
// AUDIT EVENT TYPES
// =============================================================================

// AuditEventType defines the type of audit event
type AuditEventType string

const (
	// Resolution lifecycle events
	AuditResolutionStart      AuditEventType = "resolution_start"
	AuditResolutionCacheHit   AuditEventType = "resolution_cache_hit"
	AuditResolutionResolved   AuditEventType = "resolution_resolved"
	AuditResolutionUnresolved AuditEventType = "resolution_unresolved"

	// Per-backend events within one resolution
	AuditBackendMiss  AuditEventType = "backend_miss"
	AuditBackendFault AuditEventType = "backend_fault"

	// Library events
	AuditExplicitRegister AuditEventType = "explicit_register"
	AuditBulkDetect       AuditEventType = "bulk_detect"

	// Generative model API events
	AuditModelRequest  AuditEventType = "model_request"
	AuditModelResponse AuditEventType = "model_response"
	AuditModelError    AuditEventType = "model_error"
)

// =============================================================================
// AUDIT EVENT STRUCTURE
// =============================================================================

// AuditEvent represents one structured audit log entry.
type AuditEvent struct {
	Timestamp    int64          `json:"ts"`    // Unix milliseconds
	EventType    AuditEventType `json:"event"` // Event discriminator
	Chain        string         `json:"chain"` // Owning chain name
	ResolutionID string         `json:"res"`   // Resolution correlation ID
	Query        string         `json:"query"` // Query being resolved
	Backend      string         `json:"backend,omitempty"`
	Success      bool           `json:"success"`
	DurationMs   int64          `json:"dur_ms,omitempty"`
	Error        string         `json:"error,omitempty"`
	Message      string         `json:"msg,omitempty"`
}

// =============================================================================
// AUDIT LOGGER
// =============================================================================

var (
	auditFile *os.File
	auditMu   sync.Mutex
)

// AuditLogger writes audit events scoped to one chain.
type AuditLogger struct {
	chain string
}

// InitAudit initializes the audit logging system.
// No-op when debug mode is disabled.
func InitAudit() error {
	if !IsDebugMode() {
		return nil
	}

	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile != nil {
		return nil // Already initialized
	}

	date := time.Now().Format("2006-01-02")
	auditPath := filepath.Join(logsDir, fmt.Sprintf("%s_audit.log", date))

	file, err := os.OpenFile(auditPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	auditFile = file

	header := fmt.Sprintf("# Audit log started at %s\n", time.Now().Format(time.RFC3339))
	if _, err := auditFile.WriteString(header); err != nil {
		return fmt.Errorf("failed to write audit header: %w", err)
	}

	return nil
}

// CloseAudit closes the audit log file.
func CloseAudit() {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile != nil {
		_ = auditFile.Close()
		auditFile = nil
	}
}

// AuditFor returns an audit logger scoped to the named chain.
func AuditFor(chain string) *AuditLogger {
	return &AuditLogger{chain: chain}
}

// Log writes an audit event as one JSONL line.
func (a *AuditLogger) Log(event AuditEvent) {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile == nil {
		return
	}

	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}
	if event.Chain == "" {
		event.Chain = a.chain
	}

	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	_, _ = auditFile.Write(append(data, '\n'))
}

// =============================================================================
// CONVENIENCE EVENT BUILDERS
// =============================================================================

// ResolutionStart records the start of a chain traversal for a query.
func (a *AuditLogger) ResolutionStart(resolutionID, query string) {
	a.Log(AuditEvent{
		EventType:    AuditResolutionStart,
		ResolutionID: resolutionID,
		Query:        query,
		Success:      true,
	})
}

// CacheHit records a resolution served from the cache.
func (a *AuditLogger) CacheHit(query, source string) {
	a.Log(AuditEvent{
		EventType: AuditResolutionCacheHit,
		Query:     query,
		Backend:   source,
		Success:   true,
	})
}

// BackendMiss records a backend returning no result for a query.
func (a *AuditLogger) BackendMiss(resolutionID, query, backend string) {
	a.Log(AuditEvent{
		EventType:    AuditBackendMiss,
		ResolutionID: resolutionID,
		Query:        query,
		Backend:      backend,
	})
}

// BackendFault records a backend raising a fault for a query.
// The fault is contained by the chain; this is its only visible trace.
func (a *AuditLogger) BackendFault(resolutionID, query, backend string, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	a.Log(AuditEvent{
		EventType:    AuditBackendFault,
		ResolutionID: resolutionID,
		Query:        query,
		Backend:      backend,
		Error:        msg,
	})
}

// Resolved records the winning backend for a query.
func (a *AuditLogger) Resolved(resolutionID, query, backend string, durationMs int64) {
	a.Log(AuditEvent{
		EventType:    AuditResolutionResolved,
		ResolutionID: resolutionID,
		Query:        query,
		Backend:      backend,
		Success:      true,
		DurationMs:   durationMs,
	})
}

// Unresolved records total chain exhaustion for a query.
func (a *AuditLogger) Unresolved(resolutionID, query string, durationMs int64) {
	a.Log(AuditEvent{
		EventType:    AuditResolutionUnresolved,
		ResolutionID: resolutionID,
		Query:        query,
		DurationMs:   durationMs,
	})
}

// ExplicitRegister records an authoritative description write, including
// whether it overwrote a previously cached value.
func (a *AuditLogger) ExplicitRegister(query string, overwrote bool) {
	a.Log(AuditEvent{
		EventType: AuditExplicitRegister,
		Query:     query,
		Success:   true,
		Message:   fmt.Sprintf("overwrote=%v", overwrote),
	})
}

// ModelCall records a generative model API round trip.
func (a *AuditLogger) ModelCall(model string, durationMs int64, success bool, errMsg string) {
	eventType := AuditModelResponse
	if !success {
		eventType = AuditModelError
	}
	a.Log(AuditEvent{
		EventType:  eventType,
		Backend:    model,
		Success:    success,
		DurationMs: durationMs,
		Error:      errMsg,
	})
}
