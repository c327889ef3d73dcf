// Package cached wraps any Embedder with a ristretto read-through cache.
// The assistant embeds the same text repeatedly (a prompt is embedded for
// search and again when recorded), so caching by exact text saves an API
// round trip per turn.
package cached

import (
	"context"

	"github.com/dgraph-io/ristretto"

	"github.com/recallsh/recall/memory"
)

// Embedder caches the inner embedder's vectors keyed by exact text.
type Embedder struct {
	inner memory.Embedder
	cache *ristretto.Cache
}

// New wraps inner with a cache bounded to roughly maxBytes of vector data.
func New(inner memory.Embedder, maxBytes int64) (*Embedder, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Embedder{inner: inner, cache: cache}, nil
}

// Embed returns the cached vector for text, or delegates to the inner
// embedder and caches the result. Provider errors are never cached.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := e.cache.Get(text); ok {
		return v.([]float32), nil
	}

	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Set(text, vec, int64(len(vec))*4)
	return vec, nil
}

// Dimensions returns the inner embedder's vector size.
func (e *Embedder) Dimensions() int {
	return e.inner.Dimensions()
}

// Wait blocks until pending cache writes are applied. Ristretto admits
// entries asynchronously; tests call this before asserting hits.
func (e *Embedder) Wait() {
	e.cache.Wait()
}

// Close releases the cache's internal goroutines.
func (e *Embedder) Close() {
	e.cache.Close()
}
