// Package web provides the read-only web tools: DuckDuckGo search, instant
// answers and page text extraction.
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Cyclone1070/kiro/internal/tool"
)

const (
	DefaultSearchURL = "https://html.duckduckgo.com/html/"
	DefaultAnswerURL = "https://api.duckduckgo.com/"

	maxBodyBytes = 5 << 20
)

var (
	ErrNoResults    = errors.New("no results found, try a different query")
	ErrNoAnswer     = errors.New("no instant answer found, try web_search for more results")
	ErrInvalidURL   = errors.New("url must start with http:// or https://")
	ErrQueryMissing = errors.New("query is required")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s (%s)", e.Status, http.StatusText(e.Status), e.URL)
}

// Options configure the web tools. Zero values use defaults.
type Options struct {
	SearchURL      string
	AnswerURL      string
	UserAgent      string
	Timeout        time.Duration // default 15s
	MaxResults     int           // default 10
	FetchMaxLength int           // default 5000 characters
	HTTPClient     *http.Client
}

// Client runs the web tools.
type Client struct {
	opts Options
	http *http.Client
}

// New creates a web client.
func New(opts Options) *Client {
	if opts.SearchURL == "" {
		opts.SearchURL = DefaultSearchURL
	}
	if opts.AnswerURL == "" {
		opts.AnswerURL = DefaultAnswerURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0 (X11; Linux x86_64) kiro"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = 10
	}
	if opts.FetchMaxLength <= 0 {
		opts.FetchMaxLength = 5000
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{opts: opts, http: httpClient}
}

// Tools returns web_search, fetch_url and quick_answer.
func (c *Client) Tools() []tool.Tool {
	return []tool.Tool{
		tool.New(tool.Declaration{
			Name:        "web_search",
			Description: "Search the web with DuckDuckGo and return titles, URLs and snippets.",
			Parameters: &tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"query":       {Type: tool.TypeString, Description: "Search query"},
					"num_results": {Type: tool.TypeInteger, Description: "Number of results (default 5)"},
				},
				Required: []string{"query"},
			},
		}, c.search),
		tool.New(tool.Declaration{
			Name:        "fetch_url",
			Description: "Fetch a web page and return its readable text.",
			Parameters: &tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"url":        {Type: tool.TypeString, Description: "http or https URL"},
					"max_length": {Type: tool.TypeInteger, Description: "Maximum characters of text to return"},
				},
				Required: []string{"url"},
			},
		}, c.fetch),
		tool.New(tool.Declaration{
			Name:        "quick_answer",
			Description: "Get a short factual answer or definition from DuckDuckGo's instant answer API.",
			Parameters: &tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"query": {Type: tool.TypeString, Description: "Question or term"},
				},
				Required: []string{"query"},
			},
		}, c.answer),
	}
}

func (c *Client) get(ctx context.Context, rawURL string, query url.Values) (*http.Response, error) {
	if query != nil {
		rawURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("request to %s timed out", rawURL)
		}
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &StatusError{URL: rawURL, Status: resp.StatusCode}
	}
	resp.Body = struct {
		io.Reader
		io.Closer
	}{io.LimitReader(resp.Body, maxBodyBytes), resp.Body}
	return resp, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.opts.Timeout)
}

func validHTTPURL(raw string) bool {
	return strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://")
}
