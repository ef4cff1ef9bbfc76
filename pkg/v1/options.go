package v1

import "github.com/rs/zerolog"

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	configPath     string
	embeddingModel string
	chunkSize      int
	overlap        int
	topK           int

	extractor Extractor
	embedder  Embedder
	generator func(path string) (Generator, error)
	logger    *zerolog.Logger
}

// WithConfigFile loads settings from a YAML config file.
func WithConfigFile(path string) Option {
	return func(c *clientConfig) {
		c.configPath = path
	}
}

// WithEmbeddingModel sets the local embedding model path.
func WithEmbeddingModel(path string) Option {
	return func(c *clientConfig) {
		c.embeddingModel = path
	}
}

// WithChunking overrides chunk size and overlap.
func WithChunking(size, overlap int) Option {
	return func(c *clientConfig) {
		c.chunkSize = size
		c.overlap = overlap
	}
}

// WithTopK overrides how many fragments retrieval returns.
func WithTopK(k int) Option {
	return func(c *clientConfig) {
		c.topK = k
	}
}

// WithExtractor substitutes the document text extractor.
func WithExtractor(e Extractor) Option {
	return func(c *clientConfig) {
		c.extractor = e
	}
}

// WithEmbedder substitutes the embedding provider.
func WithEmbedder(e Embedder) Option {
	return func(c *clientConfig) {
		c.embedder = e
	}
}

// WithGenerator substitutes how generation models are loaded.
func WithGenerator(load func(path string) (Generator, error)) Option {
	return func(c *clientConfig) {
		c.generator = load
	}
}

// WithLogger sets the logger; discarded by default.
func WithLogger(log zerolog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = &log
	}
}
