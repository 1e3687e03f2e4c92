package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Cyclone1070/kiro/internal/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchPage = `<html><body>
<div class="result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2F&rut=x">The Go Programming Language</a>
  <a class="result__snippet">Go is an open source programming language.</a>
</div>
<div class="result">
  <a class="result__a" href="https://pkg.go.dev/">Go Packages</a>
</div>
<div class="result"><span>ad without link</span></div>
<div class="result">
  <a class="result__a" href="https://go.dev/tour">A Tour of Go</a>
  <div class="result__snippet">Interactive intro.</div>
</div>
</body></html>`

func toolsByName(c *Client) map[string]tool.Tool {
	out := make(map[string]tool.Tool)
	for _, t := range c.Tools() {
		out[t.Declaration().Name] = t
	}
	return out
}

func TestWebSearch_ParsesResults(t *testing.T) {
	var gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotUA = r.UserAgent()
		_, _ = w.Write([]byte(searchPage))
	}))
	defer srv.Close()

	c := New(Options{SearchURL: srv.URL, UserAgent: "test-agent"})
	out := toolsByName(c)["web_search"].Execute(context.Background(), map[string]any{"query": "golang", "num_results": int64(2)})

	require.True(t, out.Success, out.Error)
	assert.Equal(t, "golang", gotQuery)
	assert.Equal(t, "test-agent", gotUA)
	assert.Equal(t, "Search results for 'golang':\n\n"+
		"1. The Go Programming Language\n   URL: https://go.dev/\n   Go is an open source programming language.\n\n"+
		"2. Go Packages\n   URL: https://pkg.go.dev/", out.Output)
}

func TestWebSearch_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>nothing</body></html>"))
	}))
	defer srv.Close()

	out := toolsByName(New(Options{SearchURL: srv.URL}))["web_search"].Execute(context.Background(), map[string]any{"query": "zzz"})

	assert.False(t, out.Success)
	assert.Equal(t, ErrNoResults.Error(), out.Error)
}

func TestFetchURL_ExtractsText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title> Example Page </title><style>p{}</style></head><body>
<header>Site nav</header><nav>menu</nav>
<h1>Heading</h1>
<p>First paragraph.</p>
<script>var x = 1;</script>
<p>Second   paragraph.</p>
<footer>copyright</footer>
</body></html>`))
	}))
	defer srv.Close()

	out := toolsByName(New(Options{}))["fetch_url"].Execute(context.Background(), map[string]any{"url": srv.URL})

	require.True(t, out.Success, out.Error)
	assert.Contains(t, out.Output, "Title: Example Page\nURL: "+srv.URL)
	assert.Contains(t, out.Output, "Heading\nFirst paragraph.\nSecond   paragraph.")
	for _, gone := range []string{"Site nav", "menu", "var x", "copyright"} {
		assert.NotContains(t, out.Output, gone)
	}
}

func TestFetchURL_TruncatesAndValidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body><p>" + strings.Repeat("a", 100) + "</p></body></html>"))
	}))
	defer srv.Close()
	tools := toolsByName(New(Options{}))

	out := tools["fetch_url"].Execute(context.Background(), map[string]any{"url": srv.URL, "max_length": int64(10)})
	require.True(t, out.Success, out.Error)
	assert.Contains(t, out.Output, "aaaaaaaaaa\n\n[Content truncated. Total length: 100 characters]")

	out = tools["fetch_url"].Execute(context.Background(), map[string]any{"url": "ftp://example.com"})
	assert.False(t, out.Success)
	assert.Equal(t, ErrInvalidURL.Error(), out.Error)
}

func TestFetchURL_HTTPErrorAndTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow" {
			select {
			case <-time.After(2 * time.Second):
			case <-r.Context().Done():
			}
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()
	tools := toolsByName(New(Options{Timeout: 50 * time.Millisecond}))

	out := tools["fetch_url"].Execute(context.Background(), map[string]any{"url": srv.URL + "/missing"})
	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "HTTP error: 404")

	out = tools["fetch_url"].Execute(context.Background(), map[string]any{"url": srv.URL + "/slow"})
	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "timed out")
}

func TestQuickAnswer(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr string
	}{
		{
			name: "abstract",
			body: `{"AbstractText":"Go is a language.","AbstractSource":"Wikipedia","AbstractURL":"https://en.wikipedia.org/wiki/Go"}`,
			want: "Answer: Go is a language.\n\nSource: Wikipedia\nMore info: https://en.wikipedia.org/wiki/Go",
		},
		{
			name: "answer fallback",
			body: `{"Answer":"42"}`,
			want: "Answer: 42\n\nSource: DuckDuckGo",
		},
		{
			name:    "nothing",
			body:    `{"AbstractText":""}`,
			wantErr: ErrNoAnswer.Error(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "json", r.URL.Query().Get("format"))
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			out := toolsByName(New(Options{AnswerURL: srv.URL}))["quick_answer"].Execute(context.Background(), map[string]any{"query": "q"})

			if tt.wantErr != "" {
				assert.False(t, out.Success)
				assert.Equal(t, tt.wantErr, out.Error)
				return
			}
			require.True(t, out.Success, out.Error)
			assert.Equal(t, tt.want, out.Output)
		})
	}
}

func TestResolveRedirect(t *testing.T) {
	assert.Equal(t, "https://example.com/a?b=c", resolveRedirect("//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fa%3Fb%3Dc"))
	assert.Equal(t, "https://plain.example/", resolveRedirect("https://plain.example/"))
}
