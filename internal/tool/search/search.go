// Package search provides the search_content tool, a ripgrep wrapper.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/Cyclone1070/kiro/internal/tool"
)

// Limits bound a search.
type Limits struct {
	DefaultLimit  int // matches returned per page
	MaxLimit      int // largest page a request may ask for
	MaxResults    int // matches collected before giving up
	MaxLineLength int
	Timeout       time.Duration
}

// DefaultLimits are used for zero fields.
var DefaultLimits = Limits{
	DefaultLimit:  100,
	MaxLimit:      1000,
	MaxResults:    10000,
	MaxLineLength: 500,
	Timeout:       30 * time.Second,
}

// SearchContentTool searches file contents with rg.
type SearchContentTool struct {
	fs       dirChecker
	exec     commandExecutor
	resolver pathResolver
	limits   Limits
}

// NewSearchContentTool creates the tool.
func NewSearchContentTool(fs dirChecker, exec commandExecutor, resolver pathResolver, limits Limits) *SearchContentTool {
	if fs == nil || exec == nil || resolver == nil {
		panic("fs, exec and resolver are required")
	}
	if limits.DefaultLimit <= 0 {
		limits.DefaultLimit = DefaultLimits.DefaultLimit
	}
	if limits.MaxLimit <= 0 {
		limits.MaxLimit = DefaultLimits.MaxLimit
	}
	if limits.MaxResults <= 0 {
		limits.MaxResults = DefaultLimits.MaxResults
	}
	if limits.MaxLineLength <= 0 {
		limits.MaxLineLength = DefaultLimits.MaxLineLength
	}
	if limits.Timeout <= 0 {
		limits.Timeout = DefaultLimits.Timeout
	}
	return &SearchContentTool{fs: fs, exec: exec, resolver: resolver, limits: limits}
}

// Tool adapts the search to the tool contract.
func (t *SearchContentTool) Tool() tool.Tool {
	return tool.New(tool.Declaration{
		Name:        "search_content",
		Description: "Search file contents with a regular expression (ripgrep syntax). Respects .gitignore unless include_ignored is set.",
		Parameters: &tool.Schema{
			Type: tool.TypeObject,
			Properties: map[string]*tool.Schema{
				"query":           {Type: tool.TypeString, Description: "Regular expression to search for"},
				"search_path":     {Type: tool.TypeString, Description: "Directory to search, relative to the workspace (default '.')"},
				"case_sensitive":  {Type: tool.TypeBoolean, Description: "Match case exactly (default false)"},
				"include_ignored": {Type: tool.TypeBoolean, Description: "Search files matched by .gitignore"},
				"offset":          {Type: tool.TypeInteger, Description: "Matches to skip"},
				"limit":           {Type: tool.TypeInteger, Description: "Matches to return"},
			},
			Required: []string{"query"},
		},
	}, t.run)
}

func (t *SearchContentTool) run(ctx context.Context, req *SearchContentRequest) (string, error) {
	matches, total, err := t.Search(ctx, req)
	if err != nil {
		return "", err
	}
	if total == 0 {
		return fmt.Sprintf("No matches for %q", req.Query), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d matches", total)
	if total >= t.limits.MaxResults {
		b.WriteString(" (search stopped at the result cap)")
	}
	b.WriteString(":\n")
	for _, m := range matches {
		fmt.Fprintf(&b, "%s:%d: %s\n", m.File, m.LineNumber, m.LineContent)
	}
	if shown := req.Offset + len(matches); shown < total {
		fmt.Fprintf(&b, "[showing %d-%d of %d; use offset=%d for more]\n", req.Offset+1, shown, total, shown)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// Search returns one page of matches sorted by file and line, plus the
// number of matches collected.
func (t *SearchContentTool) Search(ctx context.Context, req *SearchContentRequest) ([]Match, int, error) {
	abs, err := t.resolver.Abs(req.SearchPath)
	if err != nil {
		return nil, 0, err
	}
	info, err := t.fs.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, fmt.Errorf("%w: %s", ErrPathMissing, req.SearchPath)
		}
		return nil, 0, err
	}
	if !info.IsDir() {
		return nil, 0, fmt.Errorf("%w: %s", ErrNotADirectory, req.SearchPath)
	}

	cmd := []string{"rg", "--json"}
	if !req.CaseSensitive {
		cmd = append(cmd, "-i")
	}
	if req.IncludeIgnored {
		cmd = append(cmd, "--no-ignore")
	}
	cmd = append(cmd, "--", req.Query, abs)

	res, err := t.exec.Run(ctx, cmd, abs, os.Environ(), t.limits.Timeout)
	if err != nil {
		return nil, 0, err
	}
	// rg exits 1 when nothing matched.
	if res.ExitCode > 1 {
		return nil, 0, &CommandFailedError{ExitCode: res.ExitCode, Stderr: strings.TrimSpace(res.Stderr)}
	}

	matches := t.parse(res.Stdout)
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].File != matches[j].File {
			return matches[i].File < matches[j].File
		}
		return matches[i].LineNumber < matches[j].LineNumber
	})

	limit := req.Limit
	if limit <= 0 {
		limit = t.limits.DefaultLimit
	}
	limit = min(limit, t.limits.MaxLimit)

	total := len(matches)
	start := min(req.Offset, total)
	end := min(start+limit, total)
	return matches[start:end], total, nil
}

type rgEvent struct {
	Type string `json:"type"`
	Data struct {
		Path struct {
			Text string `json:"text"`
		} `json:"path"`
		Lines struct {
			Text string `json:"text"`
		} `json:"lines"`
		LineNumber int `json:"line_number"`
	} `json:"data"`
}

// parse reads rg's JSON lines output; malformed lines are skipped.
func (t *SearchContentTool) parse(out string) []Match {
	var matches []Match
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var ev rgEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil || ev.Type != "match" {
			continue
		}
		content := strings.TrimSpace(ev.Data.Lines.Text)
		if len(content) > t.limits.MaxLineLength {
			content = content[:t.limits.MaxLineLength] + "...[truncated]"
		}
		matches = append(matches, Match{
			File:        t.resolver.RelOf(ev.Data.Path.Text),
			LineNumber:  ev.Data.LineNumber,
			LineContent: content,
		})
		if len(matches) >= t.limits.MaxResults {
			break
		}
	}
	return matches
}
