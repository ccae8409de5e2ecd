package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ppiankov/iasflat/internal/store"
)

type countingCatalog struct {
	calls   map[string]int
	entries map[string]store.Entry
}

func (c *countingCatalog) Resolve(ctx context.Context, name string) (store.Entry, error) {
	c.calls[name]++
	e, ok := c.entries[name]
	if !ok {
		return store.Entry{}, store.ErrNotFound
	}
	return e, nil
}

func newCounting() *countingCatalog {
	ts := time.Date(2024, 1, 31, 8, 0, 0, 0, time.UTC)
	return &countingCatalog{
		calls: make(map[string]int),
		entries: map[string]store.Entry{
			"a.xml": {FileName: "a.xml", Timestamp: ts},
			"":      {FileName: "latest.xml", Timestamp: ts},
		},
	}
}

func TestMemoryCatalog_Memoizes(t *testing.T) {
	inner := newCounting()
	c := NewMemoryCatalog(inner, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		e, err := c.Resolve(ctx, "a.xml")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if e.FileName != "a.xml" {
			t.Errorf("expected a.xml, got %s", e.FileName)
		}
	}
	if inner.calls["a.xml"] != 1 {
		t.Errorf("expected 1 underlying call, got %d", inner.calls["a.xml"])
	}

	e, err := c.Resolve(ctx, "")
	if err != nil || e.FileName != "latest.xml" {
		t.Errorf("expected latest.xml, got %v (%v)", e.FileName, err)
	}
}

func TestMemoryCatalog_DoesNotCacheMisses(t *testing.T) {
	inner := newCounting()
	c := NewMemoryCatalog(inner, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := c.Resolve(context.Background(), "missing.xml"); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	}
	if inner.calls["missing.xml"] != 2 {
		t.Errorf("expected misses to reach the catalog each time, got %d calls", inner.calls["missing.xml"])
	}
}

func TestCacheKey(t *testing.T) {
	if CacheKey("") == CacheKey("a.xml") {
		t.Error("latest and named keys collide")
	}
	if CacheKey("a.xml") != CacheKey("a.xml") {
		t.Error("cache key not deterministic")
	}
}
