package search

import (
	"container/list"
	"sync"

	"github.com/hpungsan/pulse/internal/corpus"
)

// SegmentCache is a bounded LRU of transcript segment sets keyed by document
// id. Segments are immutable between transcript rewrites, so a small cache
// saves repeated segment reads for popular documents.
type SegmentCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front = most recently used
	entries  map[string]*list.Element
}

type cacheEntry struct {
	documentID string
	segments   []corpus.Segment
}

// NewSegmentCache creates a cache holding up to capacity documents.
func NewSegmentCache(capacity int) *SegmentCache {
	if capacity <= 0 {
		capacity = 64
	}
	return &SegmentCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element, capacity),
	}
}

// Get returns the cached segments for a document, marking them recently used.
func (c *SegmentCache) Get(documentID string) ([]corpus.Segment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[documentID]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*cacheEntry).segments, true
}

// Put stores segments for a document, evicting the least recently used
// entry when full.
func (c *SegmentCache) Put(documentID string, segments []corpus.Segment) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[documentID]; ok {
		elem.Value.(*cacheEntry).segments = segments
		c.order.MoveToFront(elem)
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).documentID)
		}
	}

	c.entries[documentID] = c.order.PushFront(&cacheEntry{
		documentID: documentID,
		segments:   segments,
	})
}

// Invalidate drops a document's entry (after a transcript rewrite).
func (c *SegmentCache) Invalidate(documentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[documentID]; ok {
		c.order.Remove(elem)
		delete(c.entries, documentID)
	}
}

// Len returns the number of cached documents.
func (c *SegmentCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
