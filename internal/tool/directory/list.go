// Package directory provides the list_directory tool.
package directory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Cyclone1070/kiro/internal/tool"
)

// Limits bound a listing.
type Limits struct {
	DefaultLimit int // entries returned when the request sets none
	MaxResults   int // hard cap on entries walked
}

// ListDirectoryTool lists workspace directories, hiding .gitignore matches.
type ListDirectoryTool struct {
	fs       fileSystem
	resolver pathResolver
	ignore   ignoreMatcher
	limits   Limits
}

// NewListDirectoryTool creates the tool. A nil ignore matcher hides nothing.
func NewListDirectoryTool(fs fileSystem, resolver pathResolver, ignore ignoreMatcher, limits Limits) *ListDirectoryTool {
	if fs == nil {
		panic("fs is required")
	}
	if resolver == nil {
		panic("resolver is required")
	}
	if limits.DefaultLimit <= 0 {
		limits.DefaultLimit = 1000
	}
	if limits.MaxResults <= 0 {
		limits.MaxResults = 50000
	}
	return &ListDirectoryTool{fs: fs, resolver: resolver, ignore: ignore, limits: limits}
}

// Tool adapts the listing to the tool contract.
func (t *ListDirectoryTool) Tool() tool.Tool {
	return tool.New(tool.Declaration{
		Name:        "list_directory",
		Description: "List files and directories. Directories end with '/'. Entries matched by .gitignore are hidden.",
		Parameters: &tool.Schema{
			Type: tool.TypeObject,
			Properties: map[string]*tool.Schema{
				"path":            {Type: tool.TypeString, Description: "Directory relative to the workspace root (default '.')"},
				"recursive":       {Type: tool.TypeBoolean, Description: "List subdirectories too (default false)"},
				"include_ignored": {Type: tool.TypeBoolean, Description: "Show entries matched by .gitignore"},
				"limit":           {Type: tool.TypeInteger, Description: "Maximum entries to return"},
			},
		},
	}, t.run)
}

func (t *ListDirectoryTool) run(ctx context.Context, req *ListDirectoryRequest) (string, error) {
	entries, truncated, err := t.List(ctx, req)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "(empty directory)", nil
	}

	var b strings.Builder
	for _, e := range entries {
		if e.IsDir {
			b.WriteString(e.RelativePath + "/\n")
		} else {
			fmt.Fprintf(&b, "%s (%d bytes)\n", e.RelativePath, e.Size)
		}
	}
	if truncated {
		fmt.Fprintf(&b, "[listing truncated after %d entries]\n", len(entries))
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// List walks the directory and returns entries with directories first,
// then by path. truncated reports whether a limit cut the listing short.
func (t *ListDirectoryTool) List(ctx context.Context, req *ListDirectoryRequest) (entries []DirectoryEntry, truncated bool, err error) {
	abs, err := t.resolver.Abs(req.Path)
	if err != nil {
		return nil, false, err
	}
	info, err := t.fs.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, fmt.Errorf("%w: %s", ErrPathMissing, req.Path)
		}
		return nil, false, fmt.Errorf("stat %s: %w", req.Path, err)
	}
	if !info.IsDir() {
		return nil, false, fmt.Errorf("%w: %s", ErrNotADirectory, req.Path)
	}

	w := &walker{
		tool:           t,
		ctx:            ctx,
		recursive:      req.Recursive,
		includeIgnored: req.IncludeIgnored,
		max:            t.limits.MaxResults,
		visited:        make(map[string]bool),
	}
	if err := w.walk(abs); err != nil {
		return nil, false, err
	}

	sort.Slice(w.entries, func(i, j int) bool {
		a, b := w.entries[i], w.entries[j]
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		return a.RelativePath < b.RelativePath
	})

	limit := t.limits.DefaultLimit
	if req.Limit > 0 {
		limit = min(req.Limit, t.limits.MaxResults)
	}
	entries = w.entries
	truncated = w.capHit
	if len(entries) > limit {
		entries = entries[:limit]
		truncated = true
	}
	return entries, truncated, nil
}

type walker struct {
	tool           *ListDirectoryTool
	ctx            context.Context
	recursive      bool
	includeIgnored bool
	max            int
	visited        map[string]bool
	entries        []DirectoryEntry
	capHit         bool
}

func (w *walker) walk(abs string) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		canonical = abs
	}
	if w.visited[canonical] {
		return nil
	}
	w.visited[canonical] = true

	infos, err := w.tool.fs.ListDir(abs)
	if err != nil {
		return fmt.Errorf("list %s: %w", w.tool.resolver.RelOf(abs), err)
	}
	for _, info := range infos {
		if len(w.entries) >= w.max {
			w.capHit = true
			return nil
		}
		entryAbs := filepath.Join(abs, info.Name())
		rel := w.tool.resolver.RelOf(entryAbs)
		if !w.includeIgnored && w.tool.ignore != nil && w.tool.ignore.ShouldIgnore(rel, info.IsDir()) {
			continue
		}
		w.entries = append(w.entries, DirectoryEntry{RelativePath: rel, IsDir: info.IsDir(), Size: info.Size()})
		if info.IsDir() && w.recursive {
			if err := w.walk(entryAbs); err != nil {
				return err
			}
			if w.capHit {
				return nil
			}
		}
	}
	return nil
}
