// Package pipeline turns the document source into a searchable index: ingest, split, embed.
package pipeline

import (
	"errors"
	"fmt"

	"agentic-rag-go/internal/model"
)

// ErrInvalidChunking is returned for a chunk size or overlap that cannot make progress.
var ErrInvalidChunking = errors.New("invalid chunking parameters")

// Splitter cuts document text into fixed-size rune windows that overlap by a fixed amount.
type Splitter struct {
	size    int
	overlap int
}

// NewSplitter requires size > 0 and 0 <= overlap < size.
func NewSplitter(size, overlap int) (*Splitter, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: size=%d overlap=%d", ErrInvalidChunking, size, overlap)
	}
	return &Splitter{size: size, overlap: overlap}, nil
}

// Split returns the chunks of doc in position order. The same document always yields the same
// chunks and ids.
func (s *Splitter) Split(doc model.Document) []model.Chunk {
	runes := []rune(doc.Text)
	if len(runes) == 0 {
		return nil
	}

	var chunks []model.Chunk
	step := s.size - s.overlap
	for i := 0; i < len(runes); i += step {
		end := i + s.size
		if end > len(runes) {
			end = len(runes)
		}
		pos := len(chunks)
		chunks = append(chunks, model.Chunk{
			ID:         model.ChunkID(doc.ID, pos),
			DocumentID: doc.ID,
			Position:   pos,
			Text:       string(runes[i:end]),
		})
		if end == len(runes) {
			break
		}
	}
	return chunks
}
