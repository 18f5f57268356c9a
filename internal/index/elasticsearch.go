package index

import (
	"context"
	"fmt"
	"time"

	"agentic-rag-go/internal/model"
	"agentic-rag-go/pkg/es"
	"agentic-rag-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
)

// esIndex serves searches from one Elasticsearch index that belongs to it alone.
// Every build writes a fresh, timestamped index so a rebuild never mutates what readers see.
type esIndex struct {
	client *elasticsearch.Client
	name   string
	dim    int
	count  int
}

// NewElasticsearchFactory returns a Factory writing entries to "<baseName>-<unix nanos>".
func NewElasticsearchFactory(client *elasticsearch.Client, baseName, modelVersion string) Factory {
	return func(ctx context.Context, entries []Entry) (VectorIndex, error) {
		if len(entries) == 0 {
			return nil, ErrEmptyIndex
		}
		dim := len(entries[0].Vector)
		docs := make([]model.EsChunk, 0, len(entries))
		for _, e := range entries {
			if len(e.Vector) != dim {
				return nil, ErrVectorLengthMismatch
			}
			docs = append(docs, model.EsChunk{
				ChunkID:      e.Chunk.ID,
				DocumentID:   e.Chunk.DocumentID,
				Position:     e.Chunk.Position,
				TextContent:  e.Chunk.Text,
				Vector:       e.Vector,
				ModelVersion: modelVersion,
			})
		}

		name := fmt.Sprintf("%s-%d", baseName, time.Now().UnixNano())
		if err := es.CreateIndex(ctx, client, name, dim); err != nil {
			return nil, err
		}
		if err := es.BulkIndex(ctx, client, name, docs); err != nil {
			if delErr := es.DeleteIndex(context.Background(), client, name); delErr != nil {
				log.Warnf("[ESIndex] cleanup of partial index '%s' failed: %v", name, delErr)
			}
			return nil, err
		}
		log.Infof("[ESIndex] built index '%s' with %d chunks", name, len(docs))
		return &esIndex{client: client, name: name, dim: dim, count: len(docs)}, nil
	}
}

func (e *esIndex) Search(ctx context.Context, vector []float32, k int) ([]model.ScoredChunk, error) {
	if len(vector) != e.dim {
		return nil, ErrVectorLengthMismatch
	}
	if k <= 0 {
		return nil, nil
	}
	hits, err := es.KNNSearch(ctx, e.client, e.name, vector, k)
	if err != nil {
		return nil, err
	}
	out := make([]model.ScoredChunk, 0, len(hits))
	for _, h := range hits {
		out = append(out, model.ScoredChunk{
			Chunk: model.Chunk{
				ID:         h.Source.ChunkID,
				DocumentID: h.Source.DocumentID,
				Position:   h.Source.Position,
				Text:       h.Source.TextContent,
			},
			Score: h.Score,
		})
	}
	return out, nil
}

func (e *esIndex) Len() int { return e.count }

func (e *esIndex) Backend() string { return "elasticsearch" }

// Close drops the backing index.
func (e *esIndex) Close(ctx context.Context) error {
	return es.DeleteIndex(ctx, e.client, e.name)
}
