package websearch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/sandevgo/healthbot/internal/core"
)

// DuckDuckGo searches through the keyless HTML endpoint. Results carry
// the snippet text and the resolved target URL.
type DuckDuckGo struct {
	client     *http.Client
	baseURL    string
	maxResults int
}

func NewDuckDuckGo(baseURL string, timeout time.Duration, maxResults int) *DuckDuckGo {
	if maxResults <= 0 {
		maxResults = 3
	}
	return &DuckDuckGo{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL:    baseURL,
		maxResults: maxResults,
	}
}

func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int) ([]core.Snippet, error) {
	if maxResults <= 0 || maxResults > d.maxResults {
		maxResults = d.maxResults
	}

	searchURL := fmt.Sprintf("%s/html/?q=%s", d.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", core.AppUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return parseResults(string(body), maxResults)
}

func parseResults(page string, maxResults int) ([]core.Snippet, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var snippets []core.Snippet

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(snippets) >= maxResults {
			return
		}
		if n.Type == html.ElementNode && n.Data == "div" && hasResultClass(n) {
			if s, ok := extractSnippet(n); ok {
				snippets = append(snippets, s)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return snippets, nil
}

func hasResultClass(n *html.Node) bool {
	class := attrValue(n, "class")
	return strings.Contains(class, "result") && strings.Contains(class, "results_links")
}

func extractSnippet(n *html.Node) (core.Snippet, bool) {
	var s core.Snippet

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			class := attrValue(n, "class")
			switch {
			case strings.Contains(class, "result__a"):
				s.URL = resolveRedirect(attrValue(n, "href"))
			case strings.Contains(class, "result__snippet"):
				s.Text = textContent(n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	return s, s.URL != "" && s.Text != ""
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= redirect links.
func resolveRedirect(href string) string {
	const prefix = "//duckduckgo.com/l/?uddg="
	if !strings.HasPrefix(href, prefix) {
		return href
	}
	decoded, err := url.QueryUnescape(strings.TrimPrefix(href, prefix))
	if err != nil {
		return href
	}
	if idx := strings.Index(decoded, "&"); idx > 0 {
		decoded = decoded[:idx]
	}
	return decoded
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(strings.TrimSpace(n.Data))
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
