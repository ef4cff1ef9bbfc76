package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/4thel00z/papyrus/internal"
	"github.com/charmbracelet/fang"
	"github.com/rs/zerolog"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	ctx := context.Background()

	app := newApp()
	rootCmd := NewRootCmd(version, app)
	if err := fang.Execute(ctx, rootCmd); err != nil {
		os.Exit(1)
	}
}

type app struct {
	log        zerolog.Logger
	newSession func(cfg *internal.Config) (*internal.Session, error)
}

func newApp() *app {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger().Level(zerolog.WarnLevel)

	if os.Getenv("PAPYRUS_DEBUG") != "" {
		log = log.Level(zerolog.DebugLevel)
	}

	a := &app{log: log}
	a.newSession = func(cfg *internal.Config) (*internal.Session, error) {
		return newLocalSession(cfg, a.log)
	}
	return a
}

// newLocalSession wires the production stack: PDF extraction, a local
// GGUF embedder, and either a local or a provider-backed generator.
func newLocalSession(cfg *internal.Config, log zerolog.Logger) (*internal.Session, error) {
	embedderPath := cfg.Embedding.ModelPath
	if embedderPath == "" {
		path, err := defaultEmbedderPath()
		if err != nil {
			return nil, fmt.Errorf("resolve cache dir: %w", err)
		}
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("no embedding model at %s, run `papyrus fetch` first", path)
		}
		embedderPath = path
	}

	embedder, err := internal.NewLocalEmbedder(embedderPath, cfg.Embedding.Dimension)
	if err != nil {
		return nil, err
	}

	loadModel := func(path string) (internal.Generator, error) {
		if path == "" && cfg.DefaultProvider != "" {
			providerCfg, ok := cfg.Providers[cfg.DefaultProvider]
			if !ok {
				return nil, fmt.Errorf("provider %q not configured", cfg.DefaultProvider)
			}
			return internal.NewRemoteGenerator(context.Background(), cfg.DefaultProvider, providerCfg)
		}
		return internal.NewLocalGenerator(path, cfg.Generation.Context)
	}

	return internal.NewSession(cfg, internal.NewPDFExtractor(), embedder, loadModel, log), nil
}

// defaultEmbedderPath is where `papyrus fetch` leaves the default
// embedding model.
func defaultEmbedderPath() (string, error) {
	cacheDir, err := internal.DefaultCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, internal.DefaultEmbeddingModelFilename), nil
}
