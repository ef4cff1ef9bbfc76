package internal

import (
	"fmt"
	"sort"
	"sync"
)

// Hit is one ranked index entry: the ordinal assigned at build time and
// the inner product with the query.
type Hit struct {
	Ordinal int
	Score   float32
}

// FlatIndex ranks L2-normalized vectors by exact inner product over the
// full stored set. Build replaces all prior state; ordinals are dense,
// zero-based, and never reused within one build.
type FlatIndex struct {
	mu      sync.RWMutex
	dim     int
	vectors [][]float32
	built   bool
}

func NewFlatIndex() *FlatIndex {
	return &FlatIndex{}
}

func (f *FlatIndex) Build(vectors [][]float32) error {
	if len(vectors) == 0 {
		return fmt.Errorf("build index: no vectors")
	}

	dim := len(vectors[0])
	stored := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has %d, expected %d", ErrDimensionMismatch, i, len(v), dim)
		}
		stored[i] = l2Normalize(v)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.dim = dim
	f.vectors = stored
	f.built = true
	return nil
}

func (f *FlatIndex) Search(query []float32, k int) ([]Hit, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.built {
		return nil, ErrIndexNotReady
	}
	if len(query) != f.dim {
		return nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimensionMismatch, len(query), f.dim)
	}
	if k <= 0 {
		return nil, fmt.Errorf("search: k must be positive, got %d", k)
	}

	hits := make([]Hit, len(f.vectors))
	for i, v := range f.vectors {
		hits[i] = Hit{Ordinal: i, Score: dot(query, v)}
	}

	// Descending score, earlier ordinal wins ties so results are
	// deterministic across runs.
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Ordinal < hits[j].Ordinal
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

func (f *FlatIndex) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.vectors)
}

func (f *FlatIndex) Dimension() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dim
}
