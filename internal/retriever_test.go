package internal

import (
	"context"
	"errors"
	"testing"
)

func buildSnapshot(t *testing.T, embedder Embedder, chunks []Chunk) *Snapshot {
	t.Helper()

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := embedder.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("embed: %v", err)
	}

	index := NewFlatIndex()
	if err := index.Build(vectors); err != nil {
		t.Fatalf("build: %v", err)
	}
	return &Snapshot{Index: index, Chunks: chunks}
}

func TestRetrieverFindsExactChunk(t *testing.T) {
	embedder := newStubEmbedder(8)
	chunks := []Chunk{
		{Page: 1, Text: "cats sleep most of the day"},
		{Page: 2, Text: "dogs enjoy long walks"},
		{Page: 3, Text: "fish live in water"},
	}
	snap := buildSnapshot(t, embedder, chunks)

	r := NewRetriever(embedder, func() *Snapshot { return snap })

	// Querying with a chunk's own text must rank that chunk first: the
	// embedding is identical, so its inner product is maximal.
	results, err := r.Search(context.Background(), "dogs enjoy long walks", 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Page != 2 || results[0].Text != "dogs enjoy long walks" {
		t.Errorf("top result = %+v, want the page 2 chunk", results[0])
	}
	if results[1].Score > results[0].Score {
		t.Errorf("scores not descending: %f > %f", results[1].Score, results[0].Score)
	}
}

func TestRetrieverNoSnapshot(t *testing.T) {
	r := NewRetriever(newStubEmbedder(8), func() *Snapshot { return nil })

	_, err := r.Search(context.Background(), "anything", 3)
	if !errors.Is(err, ErrIndexNotReady) {
		t.Fatalf("got %v, want ErrIndexNotReady", err)
	}
}

func TestRetrieverDefaultTopK(t *testing.T) {
	embedder := newStubEmbedder(8)
	chunks := []Chunk{
		{Page: 1, Text: "alpha"},
		{Page: 1, Text: "beta"},
		{Page: 2, Text: "gamma"},
		{Page: 2, Text: "delta"},
		{Page: 3, Text: "epsilon"},
	}
	snap := buildSnapshot(t, embedder, chunks)
	r := NewRetriever(embedder, func() *Snapshot { return snap })

	results, err := r.Search(context.Background(), "alpha", 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != DefaultTopK {
		t.Fatalf("got %d results, want %d", len(results), DefaultTopK)
	}
}

func TestRetrieverSkipsStaleOrdinals(t *testing.T) {
	embedder := newStubEmbedder(8)
	chunks := []Chunk{
		{Page: 1, Text: "alpha"},
		{Page: 2, Text: "beta"},
		{Page: 3, Text: "gamma"},
	}
	snap := buildSnapshot(t, embedder, chunks)

	// A snapshot whose chunk sequence is shorter than its index can
	// only come from a bug; the retriever must drop the dangling
	// ordinals instead of panicking.
	snap.Chunks = snap.Chunks[:2]

	r := NewRetriever(embedder, func() *Snapshot { return snap })

	results, err := r.Search(context.Background(), "gamma", 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2 after dropping the dangling ordinal", len(results))
	}
	for _, res := range results {
		if res.Text == "gamma" {
			t.Errorf("dangling ordinal surfaced as %+v", res)
		}
	}
}

func TestRetrieverEmbedFailure(t *testing.T) {
	embedder := newStubEmbedder(8)
	chunks := []Chunk{{Page: 1, Text: "alpha"}}
	snap := buildSnapshot(t, embedder, chunks)

	failErr := errors.New("embedder offline")
	r := NewRetriever(failingEmbedder{err: failErr}, func() *Snapshot { return snap })

	_, err := r.Search(context.Background(), "alpha", 1)
	if !errors.Is(err, failErr) {
		t.Fatalf("got %v, want wrapped %v", err, failErr)
	}
}

type failingEmbedder struct {
	err error
}

func (f failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, f.err
}

func (f failingEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, f.err
}

func (f failingEmbedder) Dimension() int { return 0 }
func (f failingEmbedder) Close() error   { return nil }
