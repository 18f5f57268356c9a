package index

import (
	"context"
	"math"
	"sort"

	"agentic-rag-go/internal/model"
)

// memoryIndex is a brute-force cosine index over L2-normalized vectors.
type memoryIndex struct {
	chunks  []model.Chunk
	vectors [][]float32
	dim     int
}

// NewMemory is the in-memory Factory.
func NewMemory(_ context.Context, entries []Entry) (VectorIndex, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyIndex
	}
	dim := len(entries[0].Vector)
	idx := &memoryIndex{
		chunks:  make([]model.Chunk, 0, len(entries)),
		vectors: make([][]float32, 0, len(entries)),
		dim:     dim,
	}
	for _, e := range entries {
		if len(e.Vector) != dim {
			return nil, ErrVectorLengthMismatch
		}
		idx.chunks = append(idx.chunks, e.Chunk)
		idx.vectors = append(idx.vectors, NormalizeL2(e.Vector))
	}
	return idx, nil
}

func (m *memoryIndex) Search(_ context.Context, vector []float32, k int) ([]model.ScoredChunk, error) {
	if len(vector) != m.dim {
		return nil, ErrVectorLengthMismatch
	}
	if k <= 0 {
		return nil, nil
	}
	q := NormalizeL2(vector)

	scores := make([]float64, len(m.vectors))
	for i, v := range m.vectors {
		scores[i] = dot(v, q)
	}
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	// ties keep chunk order so results are reproducible
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })

	if k > len(order) {
		k = len(order)
	}
	out := make([]model.ScoredChunk, 0, k)
	for _, i := range order[:k] {
		out = append(out, model.ScoredChunk{Chunk: m.chunks[i], Score: scores[i]})
	}
	return out, nil
}

func (m *memoryIndex) Len() int { return len(m.chunks) }

func (m *memoryIndex) Backend() string { return "memory" }

func (m *memoryIndex) Close(context.Context) error { return nil }

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// NormalizeL2 returns a copy of v scaled to unit length. Zero vectors are copied unchanged.
func NormalizeL2(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	n := math.Sqrt(sum)
	if n == 0 {
		copy(out, v)
		return out
	}
	inv := 1.0 / n
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}
