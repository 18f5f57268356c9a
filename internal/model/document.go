// Package model holds the data types shared across the pipeline, services and handlers.
package model

import "fmt"

// Document is one ingested file.
type Document struct {
	// ID is the file name relative to the document source dir; chunks cite it as provenance.
	ID   string `json:"id"`
	Path string `json:"path"`
	Text string `json:"-"`
}

// Chunk is a bounded span of a Document's text.
type Chunk struct {
	ID         string `json:"id"`
	DocumentID string `json:"documentId"`
	Position   int    `json:"position"`
	Text       string `json:"text"`
}

// ChunkID derives the stable id of the chunk at position within documentID.
func ChunkID(documentID string, position int) string {
	return fmt.Sprintf("%s#%d", documentID, position)
}

// ScoredChunk is a similarity search hit.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}
