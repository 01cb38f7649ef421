// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tagexpr

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// evalCache memoizes evaluation results with LRU eviction.
//
// Description:
//
//	Rule catalogs routinely re-evaluate the same condition against the
//	same tag set; memoizing (expression, sorted tag set) bounds that
//	cost. The cache is purely a performance layer: eviction never
//	affects correctness, only recomputation.
//
// Thread Safety: This type is safe for concurrent use.
type evalCache struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	lru     *list.List
	maxSize int

	// Metrics
	hits   atomic.Int64
	misses atomic.Int64
}

// evalCacheEntry stores one memoized evaluation.
type evalCacheEntry struct {
	key    string
	result EvalResult
}

// newEvalCache creates a cache bounded at maxSize entries.
func newEvalCache(maxSize int) *evalCache {
	return &evalCache{
		entries: make(map[string]*list.Element),
		lru:     list.New(),
		maxSize: maxSize,
	}
}

// key computes a stable cache key from the expression and tag set.
//
// Tags are sorted so that set identity, not iteration order, determines
// the key.
func (c *evalCache) key(expr string, tags map[string]struct{}) string {
	sorted := make([]string, 0, len(tags))
	for t := range tags {
		sorted = append(sorted, t)
	}
	sort.Strings(sorted)

	h := sha256.New()
	h.Write([]byte(expr))
	h.Write([]byte("|"))
	h.Write([]byte(strings.Join(sorted, ",")))
	return hex.EncodeToString(h.Sum(nil))
}

// get returns the memoized result for key, if present.
func (c *evalCache) get(key string) (EvalResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return EvalResult{}, false
	}
	c.lru.MoveToFront(elem)
	c.hits.Add(1)
	return elem.Value.(*evalCacheEntry).result.clone(), true
}

// put stores a result, evicting the least recently used entry at capacity.
func (c *evalCache) put(key string, result EvalResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		elem.Value.(*evalCacheEntry).result = result.clone()
		c.lru.MoveToFront(elem)
		return
	}

	for c.lru.Len() >= c.maxSize {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		delete(c.entries, oldest.Value.(*evalCacheEntry).key)
		c.lru.Remove(oldest)
	}

	elem := c.lru.PushFront(&evalCacheEntry{key: key, result: result.clone()})
	c.entries[key] = elem
}

// size returns the current number of memoized entries.
func (c *evalCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// hitRate returns the fraction of lookups served from cache (0.0-1.0).
func (c *evalCache) hitRate() float64 {
	hits := c.hits.Load()
	misses := c.misses.Load()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
