// Package mock provides a deterministic, offline embedder for tests and
// for running the assistant without an embeddings API. Vectors are built
// from hashed character trigrams, so texts sharing substrings land near
// each other; that is enough structure for similarity ordering in tests,
// not a substitute for a real model.
package mock

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[A-Za-z0-9_\-]+`)

// Embedder generates deterministic embeddings from text content.
type Embedder struct {
	dimensions int
}

// New creates a mock embedder with the default 384 dimensions.
func New() *Embedder {
	return NewWithDimensions(384)
}

// NewWithDimensions creates a mock embedder with a custom vector size.
// Small sizes keep test fixtures readable.
func NewWithDimensions(dims int) *Embedder {
	return &Embedder{dimensions: dims}
}

// Embed hashes character trigrams and word tokens into a unit vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dimensions)

	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		vec[0] = 1
		return vec, nil
	}

	window := "#" + normalized + "#"
	for i := 0; i+3 <= len(window); i++ {
		vec[bucket(window[i:i+3], e.dimensions)]++
	}
	for _, token := range tokenPattern.FindAllString(normalized, -1) {
		vec[bucket("tok:"+token, e.dimensions)] += 1.25
	}

	normalize(vec)
	return vec, nil
}

// Dimensions returns the embedding size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

func bucket(s string, dims int) int {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int(h.Sum64() % uint64(dims))
}

func normalize(vec []float32) {
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	if norm == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= inv
	}
}
