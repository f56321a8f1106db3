package reference

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLookup(t *testing.T, handler http.HandlerFunc) *Lookup {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewLookup(LookupConfig{
		Endpoint: server.URL,
		Timeout:  5 * time.Second,
	})
}

func TestLookupSuccess(t *testing.T) {
	var gotPath string
	lookup := newTestLookup(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`{"title": "Quantum computing", "extract": "A type of computation.", "type": "standard"}`))
	})

	payload, ok, err := lookup.Resolve(context.Background(), "Quantum Computing")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "A type of computation.", payload)
	assert.Equal(t, "/Quantum_Computing", gotPath, "spaces become underscores in the title path")
}

func TestLookupNotFoundIsAbsent(t *testing.T) {
	lookup := newTestLookup(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, ok, err := lookup.Resolve(context.Background(), "No Such Page")
	require.NoError(t, err, "an unknown page is absence, not a fault")
	assert.False(t, ok)
}

func TestLookupDisambiguationIsAbsent(t *testing.T) {
	lookup := newTestLookup(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"title": "Mercury", "extract": "Mercury may refer to:", "type": "disambiguation"}`))
	})

	_, ok, err := lookup.Resolve(context.Background(), "Mercury")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLookupServerErrorIsFault(t *testing.T) {
	lookup := newTestLookup(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, ok, err := lookup.Resolve(context.Background(), "Anything")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestLookupUnreachableIsFault(t *testing.T) {
	lookup := NewLookup(LookupConfig{
		Endpoint: "http://127.0.0.1:1", // nothing listens here
		Timeout:  500 * time.Millisecond,
	})

	_, ok, err := lookup.Resolve(context.Background(), "Anything")
	assert.Error(t, err)
	assert.False(t, ok)
}
