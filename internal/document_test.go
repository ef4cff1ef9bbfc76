package internal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestPDFExtractorMissingFile(t *testing.T) {
	e := NewPDFExtractor()

	_, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))

	var extractErr *ExtractionError
	if !errors.As(err, &extractErr) {
		t.Fatalf("got %T %v, want *ExtractionError", err, err)
	}
	if extractErr.Path == "" {
		t.Error("extraction error lost the document path")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("cause not preserved: %v", err)
	}
}

func TestPDFExtractorGarbageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.pdf")
	if err := os.WriteFile(path, []byte("this is not a pdf"), 0644); err != nil {
		t.Fatal(err)
	}

	e := NewPDFExtractor()
	_, err := e.Extract(context.Background(), path)

	var extractErr *ExtractionError
	if !errors.As(err, &extractErr) {
		t.Fatalf("got %T %v, want *ExtractionError", err, err)
	}
	if extractErr.Path != path {
		t.Errorf("error path = %q, want %q", extractErr.Path, path)
	}
}

func TestExtractionErrorUnwrap(t *testing.T) {
	cause := errors.New("corrupt xref table")
	err := &ExtractionError{Path: "doc.pdf", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("Unwrap does not expose the cause")
	}
	if got := err.Error(); got == "" || got == cause.Error() {
		t.Errorf("Error() = %q, want path and cause", got)
	}
}
