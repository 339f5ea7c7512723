package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ludo-technologies/pydup/domain"
)

func TestContentSignature(t *testing.T) {
	a := ContentSignature([]byte("def f(): pass"))
	b := ContentSignature([]byte("def g(): pass"))
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, ContentSignature([]byte("def f(): pass")))
}

func TestExtractionCache(t *testing.T) {
	cache := NewExtractionCache()
	extraction := &domain.FileExtraction{FilePath: "a.py"}

	_, ok := cache.Get("a.py", 1)
	assert.False(t, ok)

	cache.Put("a.py", 1, extraction)
	got, ok := cache.Get("a.py", 1)
	assert.True(t, ok)
	assert.Same(t, extraction, got)
	assert.Equal(t, 1, cache.Len())

	// changed content invalidates the entry
	_, ok = cache.Get("a.py", 2)
	assert.False(t, ok)

	// a new signature replaces, not accumulates
	cache.Put("a.py", 2, extraction)
	assert.Equal(t, 1, cache.Len())
}
