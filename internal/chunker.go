package internal

import (
	"fmt"
	"strings"
)

const (
	DefaultChunkSize    = 300
	DefaultChunkOverlap = 80
)

// ChunkPages slides a window of chunkSize words over each page,
// advancing by chunkSize-overlap words per step. Consecutive chunks
// from the same page share overlap words. A page shorter than the
// window yields a single chunk with all its words.
func ChunkPages(pages []Page, chunkSize, overlap int) ([]Chunk, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d", ErrInvalidChunking, chunkSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: overlap %d", ErrInvalidChunking, overlap)
	}

	stride := chunkSize - overlap
	if stride <= 0 {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", ErrInvalidChunking, overlap, chunkSize)
	}

	var chunks []Chunk
	for _, page := range pages {
		words := strings.Fields(page.Text)
		for i := 0; i < len(words); i += stride {
			end := i + chunkSize
			if end > len(words) {
				end = len(words)
			}
			chunks = append(chunks, Chunk{
				Page: page.Number,
				Text: strings.Join(words[i:end], " "),
			})
			// The window reaching the page end means every word is
			// covered; a further step would only re-emit the tail.
			if end == len(words) {
				break
			}
		}
	}

	return chunks, nil
}
