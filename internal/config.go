package internal

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

type GenerationConfig struct {
	ModelPath   string  `yaml:"model,omitempty"`
	Temperature float32 `yaml:"temperature"`
	TopP        float32 `yaml:"top_p"`
	MaxTokens   int     `yaml:"max_tokens"`
	Context     int     `yaml:"context"`
}

type EmbeddingConfig struct {
	ModelPath string `yaml:"model,omitempty"`
	Dimension int    `yaml:"dimension,omitempty"`
}

type ProviderConfig struct {
	APIKey  string `yaml:"api_key,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model"`
}

type Config struct {
	Chunking        ChunkingConfig            `yaml:"chunking"`
	Retrieval       RetrievalConfig           `yaml:"retrieval"`
	Generation      GenerationConfig          `yaml:"generation"`
	Embedding       EmbeddingConfig           `yaml:"embedding"`
	Providers       map[string]ProviderConfig `yaml:"providers,omitempty"`
	DefaultProvider string                    `yaml:"default_provider,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Chunking: ChunkingConfig{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		Retrieval: RetrievalConfig{
			TopK: DefaultTopK,
		},
		Generation: GenerationConfig{
			Temperature: 0.6,
			TopP:        0.9,
			MaxTokens:   400,
			Context:     2048,
		},
		Providers: make(map[string]ProviderConfig),
	}
}

func (c *Config) Validate() error {
	if c.Chunking.Size <= 0 {
		return fmt.Errorf("%w: chunk size %d", ErrInvalidChunking, c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("%w: overlap %d with chunk size %d", ErrInvalidChunking, c.Chunking.Overlap, c.Chunking.Size)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval top_k must be positive, got %d", c.Retrieval.TopK)
	}
	if c.Generation.MaxTokens <= 0 {
		return fmt.Errorf("generation max_tokens must be positive, got %d", c.Generation.MaxTokens)
	}
	return nil
}

// Sampling returns the generation sampling parameters as one value.
func (c *Config) Sampling() SamplingParams {
	return SamplingParams{
		Temperature: c.Generation.Temperature,
		TopP:        c.Generation.TopP,
		MaxTokens:   c.Generation.MaxTokens,
	}
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}
