package resolve

import (
	"sort"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestCachePutGet(t *testing.T) {
	c := NewCache()

	if c.Contains("Quantum Computing") {
		t.Fatal("empty cache should not contain anything")
	}

	v := NewValue("a field of computing", "reference-lookup")
	c.Put("Quantum Computing", v)

	got, ok := c.Get("Quantum Computing")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if diff := cmp.Diff(v, got); diff != "" {
		t.Errorf("cached value mismatch (-want +got):\n%s", diff)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}
}

func TestCacheOverwrite(t *testing.T) {
	c := NewCache()
	c.Put("q", NewValue("fallback text", "summarizer-a"))
	c.Put("q", NewValue("authoritative text", "explicit"))

	got, _ := c.Get("q")
	if got.Payload != "authoritative text" || got.Source != "explicit" {
		t.Errorf("overwrite did not supersede entry: %+v", got)
	}
	if c.Len() != 1 {
		t.Errorf("overwrite should not add entries, got %d", c.Len())
	}
}

func TestCacheRefusesUnresolved(t *testing.T) {
	c := NewCache()
	c.Put("q", Unresolved())

	if c.Contains("q") {
		t.Error("unresolved sentinel must never be cached")
	}
}

func TestCacheKeys(t *testing.T) {
	c := NewCache()
	c.Put("a", NewValue("1", "s"))
	c.Put("b", NewValue("2", "s"))

	keys := c.Keys()
	sort.Strings(keys)
	want := []string{"a", "b"}
	if diff := cmp.Diff(want, keys, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := NewCache()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Put("shared", NewValue("payload", "backend"))
		}()
		go func() {
			defer wg.Done()
			if v, ok := c.Get("shared"); ok && v.Payload != "payload" {
				t.Errorf("torn read: %+v", v)
			}
		}()
	}
	wg.Wait()
}
