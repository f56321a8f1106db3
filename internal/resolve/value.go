package resolve

import "time"

// SourceNone marks a value produced by chain exhaustion rather than a
// backend. Values with this source are never cached.
const SourceNone = ""

// Value is the result of a successful resolution: the payload plus the
// identity of the backend that produced it and when. Values are
// immutable once cached; an explicit re-register supersedes the entry
// wholesale rather than mutating it.
type Value struct {
	Payload    string
	Source     string
	ResolvedAt time.Time
}

// NewValue builds a resolved value stamped with the current time.
func NewValue(payload, source string) Value {
	return Value{
		Payload:    payload,
		Source:     source,
		ResolvedAt: time.Now(),
	}
}

// Unresolved returns the sentinel value for chain exhaustion. It is
// distinguishable from every valid resolution because no backend may
// have an empty name.
func Unresolved() Value {
	return Value{Source: SourceNone}
}

// IsResolved reports whether the value came from an actual backend.
func (v Value) IsResolved() bool {
	return v.Source != SourceNone
}
