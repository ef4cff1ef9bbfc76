package internal

import (
	"context"
	"fmt"
)

const DefaultTopK = 3

// Snapshot pairs a built index with the chunk sequence it was built
// from. The two are immutable once published and are only ever swapped
// as a unit, so an ordinal valid in the index always addresses the
// matching chunk.
type Snapshot struct {
	Index  *FlatIndex
	Chunks []Chunk
}

// Retriever embeds a query and resolves the index hits back to their
// source chunks.
type Retriever struct {
	embedder Embedder
	snapshot func() *Snapshot
}

func NewRetriever(embedder Embedder, snapshot func() *Snapshot) *Retriever {
	return &Retriever{
		embedder: embedder,
		snapshot: snapshot,
	}
}

func (r *Retriever) Search(ctx context.Context, query string, k int) ([]SearchResult, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	snap := r.snapshot()
	if snap == nil || snap.Index == nil {
		return nil, ErrIndexNotReady
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	vec = l2Normalize(vec)

	hits, err := snap.Index.Search(vec, k)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		// An ordinal outside the chunk sequence means the index and
		// chunks diverged; skip it rather than fail the whole query.
		if hit.Ordinal < 0 || hit.Ordinal >= len(snap.Chunks) {
			continue
		}

		chunk := snap.Chunks[hit.Ordinal]
		results = append(results, SearchResult{
			Page:  chunk.Page,
			Text:  chunk.Text,
			Score: hit.Score,
		})
	}

	return results, nil
}
