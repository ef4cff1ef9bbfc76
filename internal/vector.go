package internal

import (
	"context"
	"math"
)

// Embedder maps text to fixed-dimension dense vectors. Implementations
// must be deterministic for identical input text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Close() error
}

// SamplingParams control token generation.
type SamplingParams struct {
	Temperature float32
	TopP        float32
	MaxTokens   int
}

// Generator produces text fragments for a prompt, calling emit once per
// fragment in order. It returns when generation finishes, emit returns
// an error, or ctx is cancelled. Implementations need not be safe for
// concurrent calls; the stream controller serializes them.
type Generator interface {
	Generate(ctx context.Context, prompt string, params SamplingParams, emit func(token string) error) error
	Close() error
}

// SearchResult is a retrieved chunk with its cosine similarity to the
// query, in [-1, 1], higher is better.
type SearchResult struct {
	Page  int
	Text  string
	Score float32
}

func l2Normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}

	norm := math.Sqrt(sum)
	if norm == 0 {
		return vec
	}

	result := make([]float32, len(vec))
	for i, v := range vec {
		result[i] = float32(float64(v) / norm)
	}

	return result
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
