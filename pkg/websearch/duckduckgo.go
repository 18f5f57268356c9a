// Package websearch implements the live web search tool used by the web responder.
package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"agentic-rag-go/internal/config"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"
)

var (
	// ErrNoResults is returned when the search engine had nothing to say about the query.
	ErrNoResults = errors.New("no search results")
	// ErrUnknownProvider is returned by New for an unsupported search.provider.
	ErrUnknownProvider = errors.New("unknown search provider")
)

// New returns the search client named by cfg.Provider.
func New(cfg config.SearchConfig) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "duckduckgo":
		return NewDuckDuckGo(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

// Client runs a search and returns snippet text.
type Client interface {
	Search(ctx context.Context, query string) (string, error)
}

// DuckDuckGo queries the DuckDuckGo Instant Answer API and, when that has nothing, the
// HTML results page.
type DuckDuckGo struct {
	baseURL     string
	htmlURL     string
	maxSnippets int
	limiter     *rate.Limiter
	http        *http.Client
}

// NewDuckDuckGo builds a throttled DuckDuckGo client from cfg.
func NewDuckDuckGo(cfg config.SearchConfig) *DuckDuckGo {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	maxSnippets := cfg.MaxSnippets
	if maxSnippets <= 0 {
		maxSnippets = 5
	}
	return &DuckDuckGo{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		htmlURL:     strings.TrimRight(cfg.HTMLURL, "/"),
		maxSnippets: maxSnippets,
		limiter:     rate.NewLimiter(rate.Limit(rps), burst),
		http:        &http.Client{},
	}
}

type instantAnswer struct {
	Heading       string         `json:"Heading"`
	Answer        string         `json:"Answer"`
	AbstractText  string         `json:"AbstractText"`
	AbstractURL   string         `json:"AbstractURL"`
	Definition    string         `json:"Definition"`
	RelatedTopics []relatedTopic `json:"RelatedTopics"`
}

// relatedTopic is either a single result or a named group of results.
type relatedTopic struct {
	Text     string         `json:"Text"`
	FirstURL string         `json:"FirstURL"`
	Topics   []relatedTopic `json:"Topics"`
}

// Search returns instant-answer snippets, falling back to web result snippets when the
// instant answer is empty and an HTML endpoint is configured.
func (d *DuckDuckGo) Search(ctx context.Context, query string) (string, error) {
	snippets, err := d.instantAnswer(ctx, query)
	if err != nil {
		return "", err
	}
	if len(snippets) == 0 && d.htmlURL != "" {
		if snippets, err = d.webResults(ctx, query); err != nil {
			return "", err
		}
	}
	if len(snippets) == 0 {
		return "", ErrNoResults
	}
	return strings.Join(snippets, "\n"), nil
}

func (d *DuckDuckGo) instantAnswer(ctx context.Context, query string) ([]string, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	body, err := d.get(ctx, d.baseURL+"/?"+params.Encode(), "application/json")
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var ia instantAnswer
	if err := json.NewDecoder(body).Decode(&ia); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return d.snippets(ia), nil
}

func (d *DuckDuckGo) webResults(ctx context.Context, query string) ([]string, error) {
	body, err := d.get(ctx, d.htmlURL+"/?"+url.Values{"q": {query}}.Encode(), "text/html")
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := html.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse search results: %w", err)
	}
	return d.resultSnippets(doc), nil
}

// get waits for the rate limiter and returns the body of a 200 response.
func (d *DuckDuckGo) get(ctx context.Context, target, accept string) (io.ReadCloser, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call search api: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search api returned %s: %s", resp.Status, string(body))
	}
	return resp.Body, nil
}

const userAgent = "Mozilla/5.0 (compatible; agentic-rag-go)"

// resultSnippets collects "title: snippet" lines from the organic results of a DuckDuckGo
// HTML results page. Ads are skipped.
func (d *DuckDuckGo) resultSnippets(doc *html.Node) []string {
	var out []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if len(out) >= d.maxSnippets {
			return
		}
		if hasClass(n, "result") && !hasClass(n, "result--ad") {
			title := strings.TrimSpace(textOf(findByClass(n, "result__a")))
			snippet := strings.TrimSpace(textOf(findByClass(n, "result__snippet")))
			switch {
			case title != "" && snippet != "":
				out = append(out, title+": "+snippet)
			case snippet != "":
				out = append(out, snippet)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, a := range n.Attr {
		if a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

func findByClass(n *html.Node, class string) *html.Node {
	if hasClass(n, class) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

func textOf(n *html.Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func (d *DuckDuckGo) snippets(ia instantAnswer) []string {
	var out []string
	add := func(s string) bool {
		s = strings.TrimSpace(s)
		if s == "" {
			return true
		}
		out = append(out, s)
		return len(out) < d.maxSnippets
	}

	if !add(ia.Answer) || !add(ia.AbstractText) || !add(ia.Definition) {
		return out
	}
	var walk func(topics []relatedTopic) bool
	walk = func(topics []relatedTopic) bool {
		for _, t := range topics {
			if len(t.Topics) > 0 {
				if !walk(t.Topics) {
					return false
				}
				continue
			}
			if !add(t.Text) {
				return false
			}
		}
		return true
	}
	walk(ia.RelatedTopics)
	return out
}
