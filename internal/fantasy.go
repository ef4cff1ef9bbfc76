package internal

import (
	"context"
	"fmt"

	"charm.land/fantasy"
	"charm.land/fantasy/providers/anthropic"
	"charm.land/fantasy/providers/openai"
	"charm.land/fantasy/providers/openrouter"
)

var _ Generator = (*RemoteGenerator)(nil)

// RemoteGenerator streams completions from a hosted model behind the
// same Generator contract as the local one, so sessions can run
// without a GGUF file on disk. Sampling temperature and top-p are the
// remote service's business; MaxTokens is honored by truncation there.
type RemoteGenerator struct {
	model fantasy.LanguageModel
	name  string
}

func NewRemoteGenerator(ctx context.Context, name string, cfg ProviderConfig) (*RemoteGenerator, error) {
	var provider fantasy.Provider
	var err error

	switch name {
	case "openai":
		opts := []openai.Option{openai.WithAPIKey(cfg.APIKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		provider, err = openai.New(opts...)

	case "anthropic":
		opts := []anthropic.Option{anthropic.WithAPIKey(cfg.APIKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		provider, err = anthropic.New(opts...)

	case "openrouter":
		provider, err = openrouter.New(openrouter.WithAPIKey(cfg.APIKey))

	default:
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}

	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}

	model, err := provider.LanguageModel(ctx, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("get language model: %w", err)
	}

	return &RemoteGenerator{
		model: model,
		name:  name,
	}, nil
}

func (g *RemoteGenerator) Generate(ctx context.Context, prompt string, params SamplingParams, emit func(token string) error) error {
	agent := fantasy.NewAgent(g.model)

	_, err := agent.Stream(ctx, fantasy.AgentStreamCall{
		Prompt: prompt,
		OnTextDelta: func(_, text string) error {
			if text == "" {
				return nil
			}
			return emit(text)
		},
	})
	if err != nil {
		return fmt.Errorf("stream from %s: %w", g.name, err)
	}

	return nil
}

func (g *RemoteGenerator) Close() error {
	return nil
}
