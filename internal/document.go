package internal

import (
	"context"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Page is one extracted document page. Pages are consumed by the
// chunker and discarded afterwards.
type Page struct {
	Number int
	Text   string
}

// Chunk is the unit of retrieval: a window of a page's words. Its
// position in the session-wide chunk sequence is the ordinal that
// joins it to the vector index.
type Chunk struct {
	Page int
	Text string
}

// Extractor turns a document path into its non-empty pages.
type Extractor interface {
	Extract(ctx context.Context, path string) ([]Page, error)
}

var _ Extractor = (*PDFExtractor)(nil)

// PDFExtractor reads per-page plain text from PDF files. Pages whose
// text cannot be decoded are skipped; an unreadable file fails the
// whole extraction.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

func (e *PDFExtractor) Extract(ctx context.Context, path string) ([]Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ExtractionError{Path: path, Err: err}
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, &ExtractionError{Path: path, Err: err}
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, &ExtractionError{Path: path, Err: err}
	}

	var pages []Page
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		pages = append(pages, Page{Number: i, Text: text})
	}

	return pages, nil
}
