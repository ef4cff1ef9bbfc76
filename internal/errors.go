package internal

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidChunking   = errors.New("invalid chunking parameters")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrIndexNotReady     = errors.New("vector index not built")
	ErrDocumentsNotReady = errors.New("no documents ingested")
	ErrModelNotReady     = errors.New("no model loaded")
	ErrModelLoad         = errors.New("model load failed")
	ErrGeneration        = errors.New("generation failed")
	ErrIngestionBusy     = errors.New("ingestion already in progress")
	ErrGenerationBusy    = errors.New("generation already in progress")
	ErrSessionClosed     = errors.New("session closed")
)

// ExtractionError reports a document that could not be read at all.
// Single unreadable pages inside an otherwise valid document are
// skipped and do not produce one.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
