// Package index holds the immutable similarity-search structures built from embedded chunks.
package index

import (
	"context"
	"errors"

	"agentic-rag-go/internal/model"
)

var (
	// ErrNoIndex marks the absent index: the document source produced no embeddable chunks.
	ErrNoIndex = errors.New("no index")
	// ErrVectorLengthMismatch indicates two vectors have different dimensions.
	ErrVectorLengthMismatch = errors.New("vector length mismatch")
	// ErrEmptyIndex is returned by factories handed zero entries; builders return a nil index instead.
	ErrEmptyIndex = errors.New("cannot build an index from zero entries")
)

// Entry pairs a chunk with its embedding.
type Entry struct {
	Chunk  model.Chunk
	Vector []float32
}

// VectorIndex answers "the k chunks most similar to this vector".
// Implementations are immutable after construction and safe for concurrent readers.
type VectorIndex interface {
	Search(ctx context.Context, vector []float32, k int) ([]model.ScoredChunk, error)
	Len() int
	Backend() string
	// Close releases backend resources once the index has been swapped out.
	Close(ctx context.Context) error
}

// Factory builds a VectorIndex from a non-empty entry set.
type Factory func(ctx context.Context, entries []Entry) (VectorIndex, error)
