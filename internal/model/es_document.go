package model

// EsChunk is the document shape stored in Elasticsearch by the elasticsearch index backend.
type EsChunk struct {
	ChunkID      string    `json:"chunk_id"`
	DocumentID   string    `json:"document_id"`
	Position     int       `json:"position"`
	TextContent  string    `json:"text_content"`
	Vector       []float32 `json:"vector,omitempty"`
	ModelVersion string    `json:"model_version"`
}
