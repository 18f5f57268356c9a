package service

import (
	"context"
	"errors"
	"testing"

	"agentic-rag-go/internal/model"
	"agentic-rag-go/pkg/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		raw  string
		want model.Route
	}{
		{"web", model.RouteWeb},
		{"WEB", model.RouteWeb},
		{"I would say RAG.", model.RouteRetrieval},
		{"rag or web, hard to say", model.RouteWeb},
		{"llm", model.RouteDirect},
		{"", model.RouteDirect},
		{"no idea", model.RouteDirect},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.raw))
		})
	}
}

func TestClassifyWith_CustomPrecedence(t *testing.T) {
	assert.Equal(t, model.RouteRetrieval, ClassifyWith("web rag", []string{"RAG", "web"}))
	assert.Equal(t, model.RouteDirect, ClassifyWith("web", []string{"rag"}))
	assert.Equal(t, model.RouteWeb, ClassifyWith("web", []string{"bogus", "web"}))
}

func TestRouter_UsesClassifierOutput(t *testing.T) {
	client := &scriptedLLM{replies: map[string]string{routerPrefix: "rag"}}
	r := NewRouter(client, NewPrompts(configPrompts()), nil, retry.Policy{})

	assert.Equal(t, model.RouteRetrieval, r.Route(context.Background(), "what do my notes say?", true))
	prompts := client.promptsWithPrefix(routerPrefix)
	require.Len(t, prompts, 1)
	assert.Equal(t, "Classify the query into one of [web, rag, llm]:\n\nQuery: what do my notes say?\n\nAnswer:", prompts[0])
}

func TestRouter_NoIndexNeverRetrieval(t *testing.T) {
	client := &scriptedLLM{replies: map[string]string{routerPrefix: "rag"}}
	r := NewRouter(client, NewPrompts(configPrompts()), nil, retry.Policy{})
	assert.Equal(t, model.RouteDirect, r.Route(context.Background(), "q", false))
}

func TestRouter_ClassifierFailureIsDirect(t *testing.T) {
	client := &scriptedLLM{errs: map[string]error{routerPrefix: errors.New("timeout")}}
	r := NewRouter(client, NewPrompts(configPrompts()), nil, retry.Policy{MaxRetries: 1})

	assert.Equal(t, model.RouteDirect, r.Route(context.Background(), "q", true))
	assert.Len(t, client.promptsWithPrefix(routerPrefix), 2)
}
