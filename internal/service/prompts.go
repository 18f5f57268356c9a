package service

import (
	"strings"

	"agentic-rag-go/internal/config"
)

// Built-in templates. {query}, {context} and {content} are substituted at call time.
const (
	DefaultRouterPrompt    = "Classify the query into one of [web, rag, llm]:\n\nQuery: {query}\n\nAnswer:"
	DefaultRetrievalPrompt = "Use the following pieces of context to answer the question at the end. " +
		"If you don't know the answer, just say that you don't know, don't try to make up an answer.\n\n" +
		"{context}\n\nQuestion: {query}\nHelpful Answer:"
	DefaultDirectPrompt    = "{query}"
	DefaultSummarizePrompt = "Summarize clearly and concisely:\n\n{content}"
)

// Prompts holds the four generation templates.
type Prompts struct {
	Router    string
	Retrieval string
	Direct    string
	Summarize string
}

// NewPrompts returns the built-in templates with any configured overrides applied.
func NewPrompts(cfg config.LLMPromptConfig) Prompts {
	p := Prompts{
		Router:    DefaultRouterPrompt,
		Retrieval: DefaultRetrievalPrompt,
		Direct:    DefaultDirectPrompt,
		Summarize: DefaultSummarizePrompt,
	}
	if cfg.Router != "" {
		p.Router = cfg.Router
	}
	if cfg.Retrieval != "" {
		p.Retrieval = cfg.Retrieval
	}
	if cfg.Direct != "" {
		p.Direct = cfg.Direct
	}
	if cfg.Summarize != "" {
		p.Summarize = cfg.Summarize
	}
	return p
}

func render(template string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
