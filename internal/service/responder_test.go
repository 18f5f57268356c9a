package service

import (
	"context"
	"errors"
	"testing"

	"agentic-rag-go/internal/index"
	"agentic-rag-go/internal/model"
	"agentic-rag-go/pkg/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebResponder(t *testing.T) {
	search := &fakeSearch{result: "Go is a programming language."}
	res := NewWebResponder(search, retry.Policy{}).Respond(context.Background(), "what is go", nil)
	assert.True(t, res.Ok())
	assert.Equal(t, model.RouteWeb, res.Route)
	assert.Equal(t, "Go is a programming language.", res.Content)
}

func TestWebResponder_FailureBecomesContent(t *testing.T) {
	search := &fakeSearch{err: context.DeadlineExceeded}
	res := NewWebResponder(search, retry.Policy{MaxRetries: 1}).Respond(context.Background(), "q", nil)
	assert.False(t, res.Ok())
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
	assert.Equal(t, "Web search failed: context deadline exceeded", res.Content)
	assert.Equal(t, 2, search.calls)
}

func buildIndex(t *testing.T, chunks ...model.Chunk) index.VectorIndex {
	t.Helper()
	var entries []index.Entry
	for _, c := range chunks {
		vec, err := letterEmbedder{}.CreateEmbedding(context.Background(), c.Text)
		require.NoError(t, err)
		entries = append(entries, index.Entry{Chunk: c, Vector: vec})
	}
	idx, err := index.NewMemory(context.Background(), entries)
	require.NoError(t, err)
	return idx
}

func TestRetrievalResponder_GroundsPromptInChunks(t *testing.T) {
	idx := buildIndex(t,
		model.Chunk{ID: "a#0", DocumentID: "a.txt", Text: "aaaa banana"},
		model.Chunk{ID: "b#0", DocumentID: "b.txt", Text: "ooo foo boo"},
	)
	client := &scriptedLLM{replies: map[string]string{retrievalPrefix: "Bananas."}}
	r := NewRetrievalResponder(letterEmbedder{}, client, NewPrompts(configPrompts()), 1, retry.Policy{})

	res := r.Respond(context.Background(), "tell me about a banana", idx)
	require.True(t, res.Ok())
	assert.Equal(t, "Bananas.", res.Content)

	prompts := client.promptsWithPrefix(retrievalPrefix)
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "[1] (a.txt) aaaa banana")
	assert.NotContains(t, prompts[0], "b.txt")
	assert.Contains(t, prompts[0], "Question: tell me about a banana")
}

func TestRetrievalResponder_NoIndex(t *testing.T) {
	r := NewRetrievalResponder(letterEmbedder{}, &scriptedLLM{}, NewPrompts(configPrompts()), 4, retry.Policy{})
	res := r.Respond(context.Background(), "q", nil)
	assert.ErrorIs(t, res.Err, index.ErrNoIndex)
	assert.NotEmpty(t, res.Content)
}

func TestRetrievalResponder_EmbeddingFailure(t *testing.T) {
	idx := buildIndex(t, model.Chunk{ID: "a#0", DocumentID: "a.txt", Text: "a"})
	boom := errors.New("embedding down")
	r := NewRetrievalResponder(letterEmbedder{err: boom}, &scriptedLLM{}, NewPrompts(configPrompts()), 4, retry.Policy{})

	res := r.Respond(context.Background(), "q", idx)
	assert.ErrorIs(t, res.Err, boom)
	assert.Contains(t, res.Content, "Document retrieval failed:")
}

func TestDirectResponder(t *testing.T) {
	client := &scriptedLLM{replies: map[string]string{"What is 2+2?": "4"}}
	d := NewDirectResponder(client, NewPrompts(configPrompts()), retry.Policy{})

	res := d.Respond(context.Background(), "What is 2+2?", nil)
	assert.True(t, res.Ok())
	assert.Equal(t, "4", res.Content)

	failing := NewDirectResponder(&scriptedLLM{}, NewPrompts(configPrompts()), retry.Policy{})
	res = failing.Respond(context.Background(), "anything", nil)
	assert.False(t, res.Ok())
	assert.Contains(t, res.Content, "Answer generation failed:")
}
