package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"agentic-rag-go/internal/index"
	"agentic-rag-go/internal/model"
	"agentic-rag-go/pkg/llm"
)

// scriptedLLM answers by the first matching prompt prefix and records every prompt.
type scriptedLLM struct {
	mu      sync.Mutex
	replies map[string]string
	errs    map[string]error
	prompts []string
}

func (s *scriptedLLM) Generate(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	for prefix, err := range s.errs {
		if strings.HasPrefix(prompt, prefix) {
			return "", err
		}
	}
	for prefix, reply := range s.replies {
		if strings.HasPrefix(prompt, prefix) {
			return reply, nil
		}
	}
	return "", llm.ErrEmptyCompletion
}

func (s *scriptedLLM) StreamChatMessages(context.Context, []llm.Message, *llm.GenerationParams, llm.MessageWriter) error {
	return errors.New("not used")
}

func (s *scriptedLLM) promptsWithPrefix(prefix string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, p := range s.prompts {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	return out
}

const (
	routerPrefix    = "Classify the query"
	retrievalPrefix = "Use the following pieces of context"
	summarizePrefix = "Summarize clearly"
)

type fakeSearch struct {
	result string
	err    error
	calls  int
}

func (f *fakeSearch) Search(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.result, f.err
}

// letterEmbedder embeds text as counts of a handful of letters, enough for cosine ranking.
type letterEmbedder struct {
	err error
}

func (e letterEmbedder) CreateEmbedding(_ context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	vec := make([]float32, 5)
	for _, r := range strings.ToLower(text) {
		switch r {
		case 'a':
			vec[0]++
		case 'e':
			vec[1]++
		case 'i':
			vec[2]++
		case 'o':
			vec[3]++
		case 'u':
			vec[4]++
		}
	}
	vec[0] += 0.01
	return vec, nil
}

type fixedRouter struct {
	route model.Route
	calls int
}

func (f *fixedRouter) Route(context.Context, string, bool) model.Route {
	f.calls++
	return f.route
}

type countingResponder struct {
	result BranchResult
	calls  int
	gotIdx index.VectorIndex
}

func (c *countingResponder) Respond(_ context.Context, _ string, idx index.VectorIndex) BranchResult {
	c.calls++
	c.gotIdx = idx
	return c.result
}

type echoSummarizer struct {
	inputs []string
	out    string
}

func (e *echoSummarizer) Synthesize(_ context.Context, content string) string {
	e.inputs = append(e.inputs, content)
	if e.out != "" {
		return e.out
	}
	return "summary: " + content
}

type memoryRecorder struct {
	records []model.QueryRecord
	err     error
}

func (m *memoryRecorder) Create(_ context.Context, r *model.QueryRecord) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, *r)
	return nil
}

func (m *memoryRecorder) ListRecent(_ context.Context, limit int) ([]model.QueryRecord, error) {
	out := make([]model.QueryRecord, 0, limit)
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}
