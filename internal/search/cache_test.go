package search

import (
	"testing"

	"github.com/hpungsan/pulse/internal/corpus"
)

func segs(documentID string) []corpus.Segment {
	return []corpus.Segment{{DocumentID: documentID, Seq: 0, Start: 0, End: 5, Text: "text"}}
}

func TestSegmentCache_GetPut(t *testing.T) {
	cache := NewSegmentCache(4)

	if _, ok := cache.Get("missing"); ok {
		t.Error("Get on empty cache returned a hit")
	}

	cache.Put("doc-1", segs("doc-1"))
	got, ok := cache.Get("doc-1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != 1 || got[0].DocumentID != "doc-1" {
		t.Errorf("cached segments = %v", got)
	}
}

func TestSegmentCache_EvictsLeastRecentlyUsed(t *testing.T) {
	cache := NewSegmentCache(2)

	cache.Put("doc-1", segs("doc-1"))
	cache.Put("doc-2", segs("doc-2"))

	// Touch doc-1 so doc-2 becomes the eviction victim
	if _, ok := cache.Get("doc-1"); !ok {
		t.Fatal("doc-1 should be cached")
	}

	cache.Put("doc-3", segs("doc-3"))

	if _, ok := cache.Get("doc-2"); ok {
		t.Error("doc-2 should have been evicted")
	}
	if _, ok := cache.Get("doc-1"); !ok {
		t.Error("doc-1 should survive eviction")
	}
	if _, ok := cache.Get("doc-3"); !ok {
		t.Error("doc-3 should be cached")
	}
	if cache.Len() != 2 {
		t.Errorf("Len() = %d, want 2", cache.Len())
	}
}

func TestSegmentCache_PutUpdatesExisting(t *testing.T) {
	cache := NewSegmentCache(2)

	cache.Put("doc-1", segs("doc-1"))
	updated := []corpus.Segment{
		{DocumentID: "doc-1", Seq: 0, Start: 0, End: 5, Text: "new"},
		{DocumentID: "doc-1", Seq: 1, Start: 5, End: 10, Text: "segments"},
	}
	cache.Put("doc-1", updated)

	got, ok := cache.Get("doc-1")
	if !ok || len(got) != 2 {
		t.Errorf("got %d segments, want 2 after update", len(got))
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cache.Len())
	}
}

func TestSegmentCache_Invalidate(t *testing.T) {
	cache := NewSegmentCache(2)

	cache.Put("doc-1", segs("doc-1"))
	cache.Invalidate("doc-1")

	if _, ok := cache.Get("doc-1"); ok {
		t.Error("invalidated entry still cached")
	}
	if cache.Len() != 0 {
		t.Errorf("Len() = %d, want 0", cache.Len())
	}

	// Invalidating an absent key is a no-op
	cache.Invalidate("missing")
}
