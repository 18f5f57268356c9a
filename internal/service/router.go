package service

import (
	"context"
	"strings"

	"agentic-rag-go/internal/model"
	"agentic-rag-go/pkg/llm"
	"agentic-rag-go/pkg/log"
	"agentic-rag-go/pkg/retry"
)

// DefaultPrecedence checks "web" before "rag"; anything else is direct.
var DefaultPrecedence = []string{"web", "rag"}

var keywordRoutes = map[string]model.Route{
	"web": model.RouteWeb,
	"rag": model.RouteRetrieval,
}

// Classify maps a classifier response to a route using DefaultPrecedence.
func Classify(raw string) model.Route {
	return ClassifyWith(raw, DefaultPrecedence)
}

// ClassifyWith returns the route of the first keyword in precedence that the lowercased
// response contains, or RouteDirect when none does.
func ClassifyWith(raw string, precedence []string) model.Route {
	text := strings.ToLower(raw)
	for _, kw := range precedence {
		kw = strings.ToLower(kw)
		route, ok := keywordRoutes[kw]
		if !ok {
			continue
		}
		if strings.Contains(text, kw) {
			return route
		}
	}
	return model.RouteDirect
}

// RouteClassifier decides how a query is answered.
type RouteClassifier interface {
	Route(ctx context.Context, query string, indexPresent bool) model.Route
}

// Router asks the generation model to classify the query.
type Router struct {
	llm        llm.Client
	prompts    Prompts
	precedence []string
	policy     retry.Policy
}

// NewRouter returns a router. An empty precedence means DefaultPrecedence.
func NewRouter(client llm.Client, prompts Prompts, precedence []string, policy retry.Policy) *Router {
	if len(precedence) == 0 {
		precedence = DefaultPrecedence
	}
	return &Router{llm: client, prompts: prompts, precedence: precedence, policy: policy}
}

// Route never fails. A classifier error resolves to direct, and retrieval is only chosen when
// an index is present.
func (r *Router) Route(ctx context.Context, query string, indexPresent bool) model.Route {
	prompt := render(r.prompts.Router, map[string]string{"query": query})
	raw, err := retry.Do(ctx, r.policy, func(ctx context.Context) (string, error) {
		return r.llm.Generate(ctx, prompt)
	})
	if err != nil {
		log.Warnf("[Router] classification failed, falling back to direct: %v", err)
		return model.RouteDirect
	}

	route := ClassifyWith(raw, r.precedence)
	if route == model.RouteRetrieval && !indexPresent {
		log.Infof("[Router] classifier chose retrieval but no index is loaded, using direct")
		return model.RouteDirect
	}
	log.Debugf("[Router] classifier said %q, route %s", raw, route)
	return route
}
