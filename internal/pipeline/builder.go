package pipeline

import (
	"context"
	"time"

	"agentic-rag-go/internal/index"
	"agentic-rag-go/internal/model"
	"agentic-rag-go/pkg/embedding"
	"agentic-rag-go/pkg/log"
	"agentic-rag-go/pkg/retry"

	"golang.org/x/sync/errgroup"
)

// BuildStats summarizes one index build.
type BuildStats struct {
	Documents int           `json:"documents"`
	Chunks    int           `json:"chunks"`
	Indexed   int           `json:"indexed"`
	Dropped   int           `json:"dropped"`
	Backend   string        `json:"backend"`
	Duration  time.Duration `json:"duration"`
}

// Builder chunks documents, embeds every chunk and hands the vectors to an index factory.
type Builder struct {
	splitter *Splitter
	embedder embedding.Client
	factory  index.Factory
	policy   retry.Policy
	workers  int
}

// NewBuilder wires a builder. workers below 1 means sequential embedding.
func NewBuilder(splitter *Splitter, embedder embedding.Client, factory index.Factory, policy retry.Policy, workers int) *Builder {
	if workers < 1 {
		workers = 1
	}
	return &Builder{
		splitter: splitter,
		embedder: embedder,
		factory:  factory,
		policy:   policy,
		workers:  workers,
	}
}

// Build returns the index for docs, or a nil index when no chunk could be embedded.
// A chunk whose embedding keeps failing is dropped; only context cancellation and factory
// errors fail the build.
func (b *Builder) Build(ctx context.Context, docs []model.Document) (index.VectorIndex, BuildStats, error) {
	start := time.Now()
	stats := BuildStats{Documents: len(docs)}

	var chunks []model.Chunk
	for _, d := range docs {
		chunks = append(chunks, b.splitter.Split(d)...)
	}
	stats.Chunks = len(chunks)
	log.Infof("[Builder] %d documents split into %d chunks", len(docs), len(chunks))

	vectors := make([][]float32, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, c := range chunks {
		g.Go(func() error {
			vec, err := retry.Do(gctx, b.policy, func(ctx context.Context) ([]float32, error) {
				return b.embedder.CreateEmbedding(ctx, c.Text)
			})
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Warnf("[Builder] dropping chunk %s: %v", c.ID, err)
				return nil
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, err
	}

	entries := make([]index.Entry, 0, len(chunks))
	for i, c := range chunks {
		if len(vectors[i]) == 0 {
			continue
		}
		entries = append(entries, index.Entry{Chunk: c, Vector: vectors[i]})
	}
	stats.Indexed = len(entries)
	stats.Dropped = len(chunks) - len(entries)

	if len(entries) == 0 {
		stats.Duration = time.Since(start)
		log.Warnf("[Builder] no embeddable chunks, serving without an index")
		return nil, stats, nil
	}

	idx, err := b.factory(ctx, entries)
	if err != nil {
		return nil, stats, err
	}
	stats.Backend = idx.Backend()
	stats.Duration = time.Since(start)
	log.Infof("[Builder] %s index ready: %d chunks indexed, %d dropped, took %s",
		stats.Backend, stats.Indexed, stats.Dropped, stats.Duration)
	return idx, stats, nil
}
