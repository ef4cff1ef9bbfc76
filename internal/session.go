package internal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

type EventKind string

const (
	EventIngestComplete EventKind = "ingest-complete"
	EventToken          EventKind = "token"
	EventGenerationDone EventKind = "generation-complete"
	EventError          EventKind = "error"
)

// Event is the session's message to its caller. Token events carry one
// fragment; ingest-complete carries either counts or Err.
type Event struct {
	Kind      EventKind
	Token     string
	Chunks    int
	Documents int
	Err       error
}

type IngestState int

const (
	IngestEmpty IngestState = iota
	IngestRunning
	IngestReady
)

type ModelState int

const (
	ModelUnloaded ModelState = iota
	ModelLoading
	ModelReady
)

// Session coordinates document ingestion, model loading and question
// lifecycles. Long-running work happens on worker goroutines; results
// come back in order on Events(). Callers must drain Events() while an
// operation is in flight.
type Session struct {
	cfg        *Config
	log        zerolog.Logger
	extractor  Extractor
	embedder   Embedder
	loadModel  func(path string) (Generator, error)
	controller *StreamController
	retriever  *Retriever
	events     chan Event

	snap atomic.Pointer[Snapshot]

	wg sync.WaitGroup

	mu        sync.Mutex
	ingest    IngestState
	model     ModelState
	gen       Generator
	genBusy   bool
	genCancel context.CancelFunc
	closed    bool
}

func NewSession(
	cfg *Config,
	extractor Extractor,
	embedder Embedder,
	loadModel func(path string) (Generator, error),
	log zerolog.Logger,
) *Session {
	s := &Session{
		cfg:        cfg,
		log:        log,
		extractor:  extractor,
		embedder:   embedder,
		loadModel:  loadModel,
		controller: NewStreamController(),
		events:     make(chan Event, 16),
	}
	s.retriever = NewRetriever(embedder, s.Snapshot)
	return s
}

// Events returns the session's ordered event channel.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Snapshot returns the current index/chunk pair, or nil before the
// first successful ingestion.
func (s *Session) Snapshot() *Snapshot {
	return s.snap.Load()
}

// States reports the two independent lifecycle states.
func (s *Session) States() (IngestState, ModelState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ingest, s.model
}

// Ingest extracts, chunks and embeds the given documents on a worker
// and rebuilds the index, replacing the previous snapshot as a whole.
// Only one ingestion may run at a time; a concurrent request is
// rejected with ErrIngestionBusy. Completion arrives as an
// ingest-complete event.
func (s *Session) Ingest(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return errors.New("no documents given")
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.ingest == IngestRunning {
		s.mu.Unlock()
		return ErrIngestionBusy
	}
	prev := s.ingest
	s.ingest = IngestRunning
	s.wg.Add(1)
	s.mu.Unlock()

	go s.runIngest(ctx, paths, prev)
	return nil
}

func (s *Session) runIngest(ctx context.Context, paths []string, prev IngestState) {
	defer s.wg.Done()

	fail := func(err error) {
		s.mu.Lock()
		s.ingest = prev
		s.mu.Unlock()
		s.log.Error().Err(err).Msg("ingestion failed")
		s.events <- Event{Kind: EventIngestComplete, Err: err}
	}

	var chunks []Chunk
	for _, path := range paths {
		pages, err := s.extractor.Extract(ctx, path)
		if err != nil {
			fail(err)
			return
		}

		pageChunks, err := ChunkPages(pages, s.cfg.Chunking.Size, s.cfg.Chunking.Overlap)
		if err != nil {
			fail(err)
			return
		}
		chunks = append(chunks, pageChunks...)
	}

	if len(chunks) == 0 {
		fail(errors.New("no extractable text in documents"))
		return
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	s.log.Debug().Int("chunks", len(chunks)).Int("documents", len(paths)).Msg("embedding chunks")

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		fail(fmt.Errorf("embed chunks: %w", err))
		return
	}

	index := NewFlatIndex()
	if err := index.Build(vectors); err != nil {
		fail(err)
		return
	}

	// Publish index and chunks as one snapshot so readers never see
	// the pair half-replaced.
	s.snap.Store(&Snapshot{Index: index, Chunks: chunks})

	s.mu.Lock()
	s.ingest = IngestReady
	s.mu.Unlock()

	s.events <- Event{Kind: EventIngestComplete, Chunks: len(chunks), Documents: len(paths)}
}

// LoadModel loads the generation model at path, replacing any model
// loaded before. Generation requests become valid once it returns nil.
func (s *Session) LoadModel(path string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.model == ModelLoading {
		s.mu.Unlock()
		return fmt.Errorf("%w: load already in progress", ErrModelLoad)
	}
	if s.genBusy {
		s.mu.Unlock()
		return ErrGenerationBusy
	}
	prev := s.model
	s.model = ModelLoading
	s.mu.Unlock()

	gen, err := s.loadModel(path)
	if err != nil {
		s.mu.Lock()
		s.model = prev
		s.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrModelLoad, err)
	}

	s.mu.Lock()
	old := s.gen
	s.gen = gen
	s.model = ModelReady
	s.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}

	s.log.Info().Str("model", path).Msg("model loaded")
	return nil
}

// Search runs retrieval only: top-k chunks for the query, best first.
func (s *Session) Search(ctx context.Context, query string, k int) ([]SearchResult, error) {
	s.mu.Lock()
	closed := s.closed
	ready := s.ingest == IngestReady
	s.mu.Unlock()

	if closed {
		return nil, ErrSessionClosed
	}
	if !ready {
		return nil, ErrDocumentsNotReady
	}

	return s.retriever.Search(ctx, query, k)
}

// AskDocuments answers the question grounded in the ingested documents.
// It fails fast when documents or model are not ready, then retrieves,
// builds the prompt and streams the answer as token events, terminated
// by generation-complete or error.
func (s *Session) AskDocuments(ctx context.Context, question string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.ingest != IngestReady {
		s.mu.Unlock()
		return ErrDocumentsNotReady
	}
	if s.model != ModelReady {
		s.mu.Unlock()
		return ErrModelNotReady
	}
	if s.genBusy {
		s.mu.Unlock()
		return ErrGenerationBusy
	}
	// The cancel handle must exist before this returns, so a cancel
	// issued right after is never lost to the worker still starting up.
	genCtx, cancel := context.WithCancel(ctx)
	s.genBusy = true
	s.genCancel = cancel
	gen := s.gen
	s.wg.Add(1)
	s.mu.Unlock()

	go s.runGeneration(genCtx, cancel, gen, func(ctx context.Context) (string, error) {
		results, err := s.retriever.Search(ctx, question, s.cfg.Retrieval.TopK)
		if err != nil {
			return "", err
		}
		return BuildPrompt(results, question), nil
	})
	return nil
}

// Ask answers the question from the model alone, no retrieval. Only
// model readiness is required.
func (s *Session) Ask(ctx context.Context, question string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.model != ModelReady {
		s.mu.Unlock()
		return ErrModelNotReady
	}
	if s.genBusy {
		s.mu.Unlock()
		return ErrGenerationBusy
	}
	genCtx, cancel := context.WithCancel(ctx)
	s.genBusy = true
	s.genCancel = cancel
	gen := s.gen
	s.wg.Add(1)
	s.mu.Unlock()

	go s.runGeneration(genCtx, cancel, gen, func(context.Context) (string, error) {
		return question, nil
	})
	return nil
}

func (s *Session) runGeneration(ctx context.Context, cancel context.CancelFunc, gen Generator, buildPrompt func(context.Context) (string, error)) {
	defer s.wg.Done()
	defer func() {
		cancel()
		s.mu.Lock()
		s.genBusy = false
		s.genCancel = nil
		s.mu.Unlock()
	}()

	prompt, err := buildPrompt(ctx)
	if err != nil {
		// Cancellation before the prompt was even built still ends the
		// generation cleanly, not as a failure.
		if errors.Is(err, context.Canceled) {
			s.events <- Event{Kind: EventGenerationDone}
			return
		}
		s.events <- Event{Kind: EventError, Err: err}
		return
	}

	stream := s.controller.Stream(ctx, gen, prompt, s.cfg.Sampling())

	for token := range stream.Tokens() {
		s.events <- Event{Kind: EventToken, Token: token}
	}

	if err := stream.Err(); err != nil {
		s.events <- Event{Kind: EventError, Err: err}
		return
	}

	s.events <- Event{Kind: EventGenerationDone}
}

// CancelGeneration stops the in-flight generation, if any. The handle
// is registered before Ask/AskDocuments return, so a cancel issued any
// time after is honored even if the worker has not produced a token.
func (s *Session) CancelGeneration() {
	s.mu.Lock()
	cancel := s.genCancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Close cancels any in-flight generation, waits for workers to finish,
// closes the event channel and releases the embedder and any loaded
// generation model. Further operations fail with ErrSessionClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	cancel := s.genCancel
	gen := s.gen
	s.gen = nil
	s.model = ModelUnloaded
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	// Drain stragglers so a worker blocked on a full event channel can
	// deliver its terminal event and exit before the channel closes.
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
drain:
	for {
		select {
		case <-s.events:
		case <-done:
			break drain
		}
	}
	close(s.events)

	var errs []error
	if gen != nil {
		errs = append(errs, gen.Close())
	}
	if s.embedder != nil {
		errs = append(errs, s.embedder.Close())
	}
	return errors.Join(errs...)
}
