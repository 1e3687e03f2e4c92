package web

import (
	"context"
	"fmt"
	"strings"

	"github.com/Cyclone1070/kiro/internal/tool/helper/content"
	"github.com/PuerkitoBio/goquery"
)

type FetchRequest struct {
	URL       string `json:"url"`
	MaxLength int    `json:"max_length,omitempty"`
}

func (r *FetchRequest) Validate() error {
	if !validHTTPURL(r.URL) {
		return ErrInvalidURL
	}
	return nil
}

// Page is the readable text of a fetched document.
type Page struct {
	Title string
	Text  string
}

// Fetch downloads a page and strips markup, scripts and page chrome.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.get(ctx, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rawURL, err)
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = "No title"
	}
	doc.Find("script, style, noscript, nav, footer, header").Remove()

	return &Page{Title: title, Text: content.CollapseBlankLines(doc.Find("body").Text())}, nil
}

func (c *Client) fetch(ctx context.Context, req *FetchRequest) (string, error) {
	page, err := c.Fetch(ctx, req.URL)
	if err != nil {
		return "", err
	}

	max := c.opts.FetchMaxLength
	if req.MaxLength > 0 {
		max = req.MaxLength
	}
	text := page.Text
	if runes := []rune(text); len(runes) > max {
		text = fmt.Sprintf("%s\n\n[Content truncated. Total length: %d characters]", string(runes[:max]), len(runes))
	}
	return fmt.Sprintf("Title: %s\nURL: %s\nContent length: %d characters\n\n%s", page.Title, req.URL, len([]rune(page.Text)), text), nil
}
