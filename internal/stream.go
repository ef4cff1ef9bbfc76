package internal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// StreamController runs generations one at a time against a shared
// generator and hands out cancellable token streams.
type StreamController struct {
	mu sync.Mutex
}

func NewStreamController() *StreamController {
	return &StreamController{}
}

// GenerationStream is a lazy, finite, non-restartable sequence of text
// fragments. Concatenating all fragments in order reconstructs the full
// answer; fragment boundaries carry no meaning.
type GenerationStream struct {
	tokens chan string
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	text      strings.Builder
	err       error
	cancelled bool
}

// Stream starts generating for prompt and returns immediately. Tokens
// arrive on Tokens() in production order; the channel closes when the
// generator finishes, fails, or the stream is cancelled.
func (c *StreamController) Stream(ctx context.Context, gen Generator, prompt string, params SamplingParams) *GenerationStream {
	ctx, cancel := context.WithCancel(ctx)

	s := &GenerationStream{
		tokens: make(chan string),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		defer close(s.done)
		defer close(s.tokens)
		defer cancel()

		err := gen.Generate(ctx, prompt, params, func(token string) error {
			select {
			case s.tokens <- token:
				s.mu.Lock()
				s.text.WriteString(token)
				s.mu.Unlock()
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})

		if err != nil && !errors.Is(err, context.Canceled) {
			s.mu.Lock()
			s.err = fmt.Errorf("%w: %v", ErrGeneration, err)
			s.mu.Unlock()
		}
	}()

	return s
}

// Tokens returns the fragment channel. It is closed once no further
// fragments will be produced.
func (s *GenerationStream) Tokens() <-chan string {
	return s.tokens
}

// Cancel stops the stream. No fragment whose generation began after the
// signal is observed will be emitted. Safe to call more than once.
func (s *GenerationStream) Cancel() {
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()
	s.cancel()
}

// Wait blocks until the stream has fully terminated.
func (s *GenerationStream) Wait() {
	<-s.done
}

// Text returns the fragments delivered so far, concatenated. Text
// already handed to the caller is never retracted, even after an error.
func (s *GenerationStream) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text.String()
}

// Err reports a mid-stream generation failure. Only meaningful after
// Tokens() is closed.
func (s *GenerationStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Cancelled reports whether Cancel was called.
func (s *GenerationStream) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}
