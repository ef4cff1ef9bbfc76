package internal

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
)

// stubExtractor serves canned pages per path.
type stubExtractor struct {
	pages map[string][]Page
}

func (s *stubExtractor) Extract(_ context.Context, path string) ([]Page, error) {
	pages, ok := s.pages[path]
	if !ok {
		return nil, &ExtractionError{Path: path, Err: fmt.Errorf("no such document")}
	}
	return pages, nil
}

// stubEmbedder returns a deterministic unit-ish vector per text. The
// same text always maps to the same vector, different texts almost
// surely differ.
type stubEmbedder struct {
	dim int
	fn  func(text string) []float32
}

func newStubEmbedder(dim int) *stubEmbedder {
	return &stubEmbedder{dim: dim}
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if s.fn != nil {
		return s.fn(text), nil
	}
	return hashVector(text, s.dim), nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (s *stubEmbedder) Dimension() int { return s.dim }
func (s *stubEmbedder) Close() error   { return nil }

func hashVector(text string, dim int) []float32 {
	vec := make([]float32, dim)
	for i := 0; i < dim; i++ {
		h := fnv.New32a()
		fmt.Fprintf(h, "%d:%s", i, text)
		vec[i] = float32(h.Sum32()%1000) / 1000.0
	}
	return vec
}

// stubGenerator emits its fragments in order, optionally failing after
// failAfter fragments or looping forever.
type stubGenerator struct {
	fragments []string
	loop      bool
	failAfter int
	failErr   error

	mu         sync.Mutex
	prompts    []string
	emitted    int
	active     int
	overlapped bool
	closed     bool
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string, _ SamplingParams, emit func(token string) error) error {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.active++
	if g.active > 1 {
		g.overlapped = true
	}
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.active--
		g.mu.Unlock()
	}()

	for i := 0; ; i++ {
		if !g.loop && i >= len(g.fragments) {
			return nil
		}
		if g.failErr != nil && i >= g.failAfter {
			return g.failErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		frag := g.fragments[i%len(g.fragments)]
		if err := emit(frag); err != nil {
			return err
		}

		g.mu.Lock()
		g.emitted++
		g.mu.Unlock()
	}
}

func (g *stubGenerator) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return nil
}

func (g *stubGenerator) lastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

func (g *stubGenerator) emittedCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.emitted
}
