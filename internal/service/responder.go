package service

import (
	"context"
	"fmt"
	"strings"

	"agentic-rag-go/internal/index"
	"agentic-rag-go/internal/model"
	"agentic-rag-go/pkg/embedding"
	"agentic-rag-go/pkg/llm"
	"agentic-rag-go/pkg/log"
	"agentic-rag-go/pkg/retry"
	"agentic-rag-go/pkg/websearch"
)

// BranchResult is what a responder produced. A failed result still carries readable content
// that describes the failure.
type BranchResult struct {
	Route   model.Route
	Content string
	Err     error
}

// Succeeded is a branch result holding generated or retrieved content.
func Succeeded(route model.Route, content string) BranchResult {
	return BranchResult{Route: route, Content: content}
}

// Failed converts err into a branch result whose content describes the failure.
func Failed(route model.Route, err error) BranchResult {
	return BranchResult{Route: route, Content: failurePrefix(route) + err.Error(), Err: err}
}

// Ok reports whether the branch succeeded.
func (b BranchResult) Ok() bool { return b.Err == nil }

func failurePrefix(route model.Route) string {
	switch route {
	case model.RouteWeb:
		return "Web search failed: "
	case model.RouteRetrieval:
		return "Document retrieval failed: "
	default:
		return "Answer generation failed: "
	}
}

// Responder answers a query along one route. It never returns an error: failures come back
// as Failed results.
type Responder interface {
	Respond(ctx context.Context, query string, idx index.VectorIndex) BranchResult
}

// WebResponder answers with live web search snippets.
type WebResponder struct {
	search websearch.Client
	policy retry.Policy
}

func NewWebResponder(search websearch.Client, policy retry.Policy) *WebResponder {
	return &WebResponder{search: search, policy: policy}
}

func (w *WebResponder) Respond(ctx context.Context, query string, _ index.VectorIndex) BranchResult {
	out, err := retry.Do(ctx, w.policy, func(ctx context.Context) (string, error) {
		return w.search.Search(ctx, query)
	})
	if err != nil {
		log.Warnf("[WebResponder] search failed: %v", err)
		return Failed(model.RouteWeb, err)
	}
	return Succeeded(model.RouteWeb, out)
}

// RetrievalResponder answers from the top-k chunks of the document index.
type RetrievalResponder struct {
	embedder embedding.Client
	llm      llm.Client
	prompts  Prompts
	topK     int
	policy   retry.Policy
}

func NewRetrievalResponder(embedder embedding.Client, client llm.Client, prompts Prompts, topK int, policy retry.Policy) *RetrievalResponder {
	if topK <= 0 {
		topK = 4
	}
	return &RetrievalResponder{embedder: embedder, llm: client, prompts: prompts, topK: topK, policy: policy}
}

func (r *RetrievalResponder) Respond(ctx context.Context, query string, idx index.VectorIndex) BranchResult {
	if idx == nil {
		return Failed(model.RouteRetrieval, index.ErrNoIndex)
	}

	vec, err := retry.Do(ctx, r.policy, func(ctx context.Context) ([]float32, error) {
		return r.embedder.CreateEmbedding(ctx, query)
	})
	if err != nil {
		log.Warnf("[RetrievalResponder] query embedding failed: %v", err)
		return Failed(model.RouteRetrieval, fmt.Errorf("embed query: %w", err))
	}
	hits, err := retry.Do(ctx, r.policy, func(ctx context.Context) ([]model.ScoredChunk, error) {
		return idx.Search(ctx, vec, r.topK)
	})
	if err != nil {
		log.Warnf("[RetrievalResponder] index search failed: %v", err)
		return Failed(model.RouteRetrieval, fmt.Errorf("search index: %w", err))
	}
	log.Debugf("[RetrievalResponder] %d chunks retrieved from %s index", len(hits), idx.Backend())

	prompt := render(r.prompts.Retrieval, map[string]string{
		"context": buildContextText(hits),
		"query":   query,
	})
	answer, err := retry.Do(ctx, r.policy, func(ctx context.Context) (string, error) {
		return r.llm.Generate(ctx, prompt)
	})
	if err != nil {
		log.Warnf("[RetrievalResponder] generation failed: %v", err)
		return Failed(model.RouteRetrieval, err)
	}
	return Succeeded(model.RouteRetrieval, answer)
}

// buildContextText numbers each chunk and labels it with its source document.
func buildContextText(hits []model.ScoredChunk) string {
	var sb strings.Builder
	for i, h := range hits {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[%d] (%s) %s", i+1, h.Chunk.DocumentID, h.Chunk.Text)
	}
	return sb.String()
}

// DirectResponder asks the generation model directly.
type DirectResponder struct {
	llm     llm.Client
	prompts Prompts
	policy  retry.Policy
}

func NewDirectResponder(client llm.Client, prompts Prompts, policy retry.Policy) *DirectResponder {
	return &DirectResponder{llm: client, prompts: prompts, policy: policy}
}

func (d *DirectResponder) Respond(ctx context.Context, query string, _ index.VectorIndex) BranchResult {
	prompt := render(d.prompts.Direct, map[string]string{"query": query})
	answer, err := retry.Do(ctx, d.policy, func(ctx context.Context) (string, error) {
		return d.llm.Generate(ctx, prompt)
	})
	if err != nil {
		log.Warnf("[DirectResponder] generation failed: %v", err)
		return Failed(model.RouteDirect, err)
	}
	return Succeeded(model.RouteDirect, answer)
}
