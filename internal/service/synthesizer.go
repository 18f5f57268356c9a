package service

import (
	"context"
	"strings"

	"agentic-rag-go/pkg/llm"
	"agentic-rag-go/pkg/log"
	"agentic-rag-go/pkg/retry"
)

// Summarizer turns branch content into the final answer.
type Summarizer interface {
	Synthesize(ctx context.Context, content string) string
}

// Synthesizer summarizes through the generation model.
type Synthesizer struct {
	llm     llm.Client
	prompts Prompts
	policy  retry.Policy
}

func NewSynthesizer(client llm.Client, prompts Prompts, policy retry.Policy) *Synthesizer {
	return &Synthesizer{llm: client, prompts: prompts, policy: policy}
}

// Synthesize returns a summary of content, or content itself when summarizing fails, so a
// non-empty input always gives a non-empty answer.
func (s *Synthesizer) Synthesize(ctx context.Context, content string) string {
	prompt := render(s.prompts.Summarize, map[string]string{"content": content})
	summary, err := retry.Do(ctx, s.policy, func(ctx context.Context) (string, error) {
		return s.llm.Generate(ctx, prompt)
	})
	if err != nil {
		log.Warnf("[Synthesizer] summarization failed, returning branch content: %v", err)
		return content
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		log.Warnf("[Synthesizer] summary was empty, returning branch content")
		return content
	}
	return summary
}
