package v1

import "context"

// Page is one extracted document page.
type Page struct {
	Number int    `json:"page"`
	Text   string `json:"text"`
}

// SearchResult is a retrieved fragment with its similarity score,
// higher is better.
type SearchResult struct {
	Page  int     `json:"page"`
	Text  string  `json:"text"`
	Score float32 `json:"score"`
}

// SamplingParams control token generation.
type SamplingParams struct {
	Temperature float32
	TopP        float32
	MaxTokens   int
}

// Embedder maps text to fixed-dimension dense vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Close() error
}

// Generator streams text fragments for a prompt through emit, in order.
type Generator interface {
	Generate(ctx context.Context, prompt string, params SamplingParams, emit func(token string) error) error
	Close() error
}

// Extractor turns a document path into its non-empty pages.
type Extractor interface {
	Extract(ctx context.Context, path string) ([]Page, error)
}
