package web

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type SearchRequest struct {
	Query      string `json:"query"`
	NumResults int    `json:"num_results,omitempty"`
}

func (r *SearchRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return ErrQueryMissing
	}
	return nil
}

// SearchResult is one DuckDuckGo hit.
type SearchResult struct {
	Title   string
	URL     string
	Snippet string
}

// Search scrapes the DuckDuckGo HTML endpoint.
func (c *Client) Search(ctx context.Context, query string, n int) ([]SearchResult, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.get(ctx, c.opts.SearchURL, url.Values{"q": {query}})
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse search results: %w", err)
	}

	var results []SearchResult
	doc.Find("div.result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		title := s.Find("a.result__a").First()
		if title.Length() == 0 {
			return true
		}
		href, _ := title.Attr("href")
		results = append(results, SearchResult{
			Title:   strings.TrimSpace(title.Text()),
			URL:     resolveRedirect(href),
			Snippet: strings.TrimSpace(s.Find(".result__snippet").First().Text()),
		})
		return len(results) < n
	})
	return results, nil
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= redirect links.
func resolveRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

func (c *Client) search(ctx context.Context, req *SearchRequest) (string, error) {
	n := req.NumResults
	if n <= 0 {
		n = 5
	}
	n = min(n, c.opts.MaxResults)

	results, err := c.Search(ctx, req.Query, n)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", ErrNoResults
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Search results for '%s':\n", req.Query)
	for i, r := range results {
		fmt.Fprintf(&b, "\n%d. %s\n   URL: %s\n", i+1, r.Title, r.URL)
		if r.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", r.Snippet)
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
