package v1

import (
	"context"
	"fmt"
	"io"

	"github.com/4thel00z/papyrus/internal"
	"github.com/rs/zerolog"
)

// Client provides programmatic access to the question-answering core.
// It is the integration surface for UI shells: operations report back
// through return values and the per-call token callbacks.
type Client struct {
	sess *internal.Session
}

// New creates a Client. Without options it extracts PDFs and embeds
// with the default cached local model.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	conf := internal.DefaultConfig()
	if cfg.configPath != "" {
		loaded, err := internal.LoadConfig(cfg.configPath)
		if err != nil {
			return nil, err
		}
		conf = loaded
	}
	if cfg.chunkSize > 0 {
		conf.Chunking.Size = cfg.chunkSize
		conf.Chunking.Overlap = cfg.overlap
	}
	if cfg.topK > 0 {
		conf.Retrieval.TopK = cfg.topK
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	extractor := internal.Extractor(internal.NewPDFExtractor())
	if cfg.extractor != nil {
		extractor = &extractorAdapter{inner: cfg.extractor}
	}

	var embedder internal.Embedder
	if cfg.embedder != nil {
		embedder = cfg.embedder
	} else {
		path := cfg.embeddingModel
		if path == "" {
			path = conf.Embedding.ModelPath
		}
		if path == "" {
			return nil, fmt.Errorf("no embedding model configured")
		}
		local, err := internal.NewLocalEmbedder(path, conf.Embedding.Dimension)
		if err != nil {
			return nil, err
		}
		embedder = local
	}

	loadModel := func(path string) (internal.Generator, error) {
		if cfg.generator != nil {
			gen, err := cfg.generator(path)
			if err != nil {
				return nil, err
			}
			return &generatorAdapter{inner: gen}, nil
		}
		return internal.NewLocalGenerator(path, conf.Generation.Context)
	}

	log := zerolog.New(io.Discard)
	if cfg.logger != nil {
		log = *cfg.logger
	}

	return &Client{
		sess: internal.NewSession(conf, extractor, embedder, loadModel, log),
	}, nil
}

// Ingest indexes the given documents, replacing any previous index. It
// returns the number of chunks indexed.
func (c *Client) Ingest(ctx context.Context, paths []string) (int, error) {
	if err := c.sess.Ingest(ctx, paths); err != nil {
		return 0, err
	}

	for ev := range c.sess.Events() {
		switch ev.Kind {
		case internal.EventIngestComplete:
			return ev.Chunks, ev.Err
		case internal.EventError:
			return 0, ev.Err
		}
	}
	return 0, fmt.Errorf("session closed during ingestion")
}

// LoadModel loads the generation model at path.
func (c *Client) LoadModel(path string) error {
	return c.sess.LoadModel(path)
}

// Ask answers the question grounded in the ingested documents,
// invoking onToken for each fragment in order, and returns the full
// answer text. Requires Ingest and LoadModel to have succeeded.
func (c *Client) Ask(ctx context.Context, question string, onToken func(token string)) (string, error) {
	if err := c.sess.AskDocuments(ctx, question); err != nil {
		return "", err
	}
	return c.collect(onToken)
}

// Chat answers the question from the model alone, no retrieval.
func (c *Client) Chat(ctx context.Context, question string, onToken func(token string)) (string, error) {
	if err := c.sess.Ask(ctx, question); err != nil {
		return "", err
	}
	return c.collect(onToken)
}

func (c *Client) collect(onToken func(token string)) (string, error) {
	var answer []byte
	for ev := range c.sess.Events() {
		switch ev.Kind {
		case internal.EventToken:
			answer = append(answer, ev.Token...)
			if onToken != nil {
				onToken(ev.Token)
			}
		case internal.EventGenerationDone:
			return string(answer), nil
		case internal.EventError:
			return string(answer), ev.Err
		}
	}
	return string(answer), fmt.Errorf("session closed during generation")
}

// Search returns the top-k fragments for the query, best first.
func (c *Client) Search(ctx context.Context, query string, k int) ([]SearchResult, error) {
	results, err := c.sess.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}

	out := make([]SearchResult, len(results))
	for i, r := range results {
		out[i] = SearchResult{Page: r.Page, Text: r.Text, Score: r.Score}
	}
	return out, nil
}

// Cancel stops the in-flight generation, if any.
func (c *Client) Cancel() {
	c.sess.CancelGeneration()
}

// Close releases the embedder and any loaded model.
func (c *Client) Close() error {
	return c.sess.Close()
}

type extractorAdapter struct {
	inner Extractor
}

func (a *extractorAdapter) Extract(ctx context.Context, path string) ([]internal.Page, error) {
	pages, err := a.inner.Extract(ctx, path)
	if err != nil {
		return nil, err
	}

	out := make([]internal.Page, len(pages))
	for i, p := range pages {
		out[i] = internal.Page{Number: p.Number, Text: p.Text}
	}
	return out, nil
}

type generatorAdapter struct {
	inner Generator
}

func (a *generatorAdapter) Generate(ctx context.Context, prompt string, params internal.SamplingParams, emit func(token string) error) error {
	return a.inner.Generate(ctx, prompt, SamplingParams(params), emit)
}

func (a *generatorAdapter) Close() error {
	return a.inner.Close()
}
