package service

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/ludo-technologies/pydup/domain"
)

// ContentSignature returns a fast non-cryptographic hash of file
// content, used to key the extraction cache. Collisions only cost a
// stale cache hit on a byte-identical signature, never correctness of
// a fresh run.
func ContentSignature(content []byte) uint64 {
	return xxhash.Sum64(content)
}

type extractionEntry struct {
	sig    uint64
	result *domain.FileExtraction
}

// ExtractionCache memoizes per-file extraction results keyed by path
// and content signature, so repeated scans of an unchanged tree skip
// re-parsing. Safe for concurrent use.
type ExtractionCache struct {
	mu      sync.RWMutex
	entries map[string]extractionEntry
}

// NewExtractionCache creates an empty cache.
func NewExtractionCache() *ExtractionCache {
	return &ExtractionCache{
		entries: make(map[string]extractionEntry),
	}
}

// Get returns the cached extraction for a path when the content
// signature still matches.
func (c *ExtractionCache) Get(path string, sig uint64) (*domain.FileExtraction, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[path]
	if !ok || e.sig != sig {
		return nil, false
	}
	return e.result, true
}

// Put stores an extraction result, replacing any stale entry.
func (c *ExtractionCache) Put(path string, sig uint64, result *domain.FileExtraction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = extractionEntry{sig: sig, result: result}
}

// Len returns the number of cached files.
func (c *ExtractionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
