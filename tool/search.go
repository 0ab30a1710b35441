// Package tool provides the optional capabilities the graph can run before
// responding. Currently this is web search backed by the Brave Search API with
// a DuckDuckGo HTML fallback.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/hupe1980/agentgraph/logging"
)

// Default search endpoints.
const (
	DefaultBraveEndpoint      = "https://api.search.brave.com/res/v1/web/search"
	DefaultDuckDuckGoEndpoint = "https://html.duckduckgo.com/html/"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Result is a single web search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Searcher runs a web search for a free-text query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// WebSearchOptions configures WebSearch.
type WebSearchOptions struct {
	// BraveAPIKey enables the Brave Search API. Without it only DuckDuckGo is used.
	BraveAPIKey string
	// MaxResults caps the number of returned results (default 5).
	MaxResults         int
	BraveEndpoint      string
	DuckDuckGoEndpoint string
	HTTPClient         *http.Client
	Logger             logging.Logger
}

// WebSearch is a Searcher that tries Brave first and falls back to DuckDuckGo.
type WebSearch struct {
	braveAPIKey string
	maxResults  int
	braveURL    string
	ddgURL      string
	client      *http.Client
	logger      logging.Logger
}

// NewWebSearch creates a WebSearch.
func NewWebSearch(optFns ...func(o *WebSearchOptions)) *WebSearch {
	opts := WebSearchOptions{
		MaxResults:         5,
		BraveEndpoint:      DefaultBraveEndpoint,
		DuckDuckGoEndpoint: DefaultDuckDuckGoEndpoint,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxResults <= 0 {
		opts.MaxResults = 5
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	return &WebSearch{
		braveAPIKey: opts.BraveAPIKey,
		maxResults:  opts.MaxResults,
		braveURL:    opts.BraveEndpoint,
		ddgURL:      opts.DuckDuckGoEndpoint,
		client:      client,
		logger:      logging.OrNoOp(opts.Logger),
	}
}

// Search performs a web search using available methods. An empty query
// returns no results.
func (s *WebSearch) Search(ctx context.Context, query string) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	if s.braveAPIKey != "" {
		results, err := s.searchBrave(ctx, query)
		if err == nil {
			return results, nil
		}
		s.logger.Warn("search.brave.failed", "error", err.Error())
	}

	return s.searchDuckDuckGo(ctx, query)
}

type braveSearchResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

func (s *WebSearch) searchBrave(ctx context.Context, query string) ([]Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.braveURL+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", s.braveAPIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("brave search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("brave search returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload braveSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to parse brave response: %w", err)
	}

	results := make([]Result, 0, len(payload.Web.Results))
	for _, r := range payload.Web.Results {
		if len(results) >= s.maxResults {
			break
		}
		results = append(results, Result{Title: r.Title, URL: r.URL, Snippet: r.Description})
	}

	return results, nil
}

func (s *WebSearch) searchDuckDuckGo(ctx context.Context, query string) ([]Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.ddgURL+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo returned status %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse duckduckgo response: %w", err)
	}

	return parseDuckDuckGo(doc, s.maxResults), nil
}

// parseDuckDuckGo collects result__a anchors and their result__snippet
// siblings in document order.
func parseDuckDuckGo(doc *html.Node, limit int) []Result {
	var results []Result

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case hasClass(n, "result__a"):
				if len(results) >= limit {
					return
				}
				results = append(results, Result{
					Title: textContent(n),
					URL:   resolveDuckDuckGoLink(attr(n, "href")),
				})
				return
			case hasClass(n, "result__snippet"):
				if len(results) > 0 && results[len(results)-1].Snippet == "" {
					results[len(results)-1].Snippet = textContent(n)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return results
}

// resolveDuckDuckGoLink unwraps DuckDuckGo redirect links (/l/?uddg=<target>).
func resolveDuckDuckGoLink(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" && strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return href
}

func hasClass(n *html.Node, class string) bool {
	for _, f := range strings.Fields(attr(n, "class")) {
		if f == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	return strings.Join(strings.Fields(b.String()), " ")
}

// FormatResults renders results as plain text suitable for a system message.
func FormatResults(query string, results []Result) string {
	if len(results) == 0 {
		return fmt.Sprintf("No web results found for %q.", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Web search results for %q:\n", query)

	for i, r := range results {
		fmt.Fprintf(&b, "\n%d. %s\n   URL: %s", i+1, r.Title, r.URL)
		if r.Snippet != "" {
			fmt.Fprintf(&b, "\n   %s", r.Snippet)
		}
	}

	return b.String()
}
