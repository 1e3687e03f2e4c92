package directory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Cyclone1070/kiro/internal/tool/service/fs"
	"github.com/Cyclone1070/kiro/internal/tool/service/git"
	"github.com/Cyclone1070/kiro/internal/tool/service/path"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root, err := path.CanonicaliseRoot(t.TempDir())
	require.NoError(t, err)
	for rel, body := range files {
		abs := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, []byte(body), 0o644))
	}
	return root
}

func newTool(t *testing.T, root string, limits Limits) *ListDirectoryTool {
	t.Helper()
	fsys := fs.NewOSFileSystem()
	ignore, err := git.NewIgnoreMatcher(root, fsys)
	require.NoError(t, err)
	return NewListDirectoryTool(fsys, path.NewResolver(root), ignore, limits)
}

func TestListDirectory_TopLevel(t *testing.T) {
	root := newTree(t, map[string]string{
		"b.txt":       "bb",
		"a.txt":       "a",
		"src/main.go": "package main",
	})

	out := newTool(t, root, Limits{}).Tool().Execute(context.Background(), map[string]any{})

	require.True(t, out.Success, out.Error)
	assert.Equal(t, "src/\na.txt (1 bytes)\nb.txt (2 bytes)", out.Output)
}

func TestListDirectory_RecursiveHonoursGitignore(t *testing.T) {
	root := newTree(t, map[string]string{
		".gitignore":         "bin/\n*.log\n",
		"bin/tool":           "x",
		"debug.log":          "x",
		"src/main.go":        "x",
		"src/pkg/util.go":    "x",
		".git/HEAD":          "ref",
		"docs/readme.md":     "x",
		"docs/build/out.log": "x",
	})
	lt := newTool(t, root, Limits{})

	entries, truncated, err := lt.List(context.Background(), &ListDirectoryRequest{Path: ".", Recursive: true})
	require.NoError(t, err)
	assert.False(t, truncated)

	var paths []string
	for _, e := range entries {
		paths = append(paths, e.RelativePath)
	}
	assert.Equal(t, []string{"docs", "docs/build", "src", "src/pkg", ".gitignore", "docs/readme.md", "src/main.go", "src/pkg/util.go"}, paths)

	entries, _, err = lt.List(context.Background(), &ListDirectoryRequest{Path: ".", IncludeIgnored: true})
	require.NoError(t, err)
	assert.Len(t, entries, 6)
}

func TestListDirectory_Limit_Truncates(t *testing.T) {
	root := newTree(t, map[string]string{"a": "", "b": "", "c": ""})

	out := newTool(t, root, Limits{}).Tool().Execute(context.Background(), map[string]any{"limit": int64(2)})

	require.True(t, out.Success, out.Error)
	assert.Contains(t, out.Output, "[listing truncated after 2 entries]")
}

func TestListDirectory_Failures(t *testing.T) {
	root := newTree(t, map[string]string{"file.txt": "x"})
	lt := newTool(t, root, Limits{})

	_, _, err := lt.List(context.Background(), &ListDirectoryRequest{Path: "missing"})
	assert.ErrorIs(t, err, ErrPathMissing)

	_, _, err = lt.List(context.Background(), &ListDirectoryRequest{Path: "file.txt"})
	assert.ErrorIs(t, err, ErrNotADirectory)

	_, _, err = lt.List(context.Background(), &ListDirectoryRequest{Path: "../"})
	assert.ErrorIs(t, err, path.ErrPathRejected)
}

func TestListDirectory_EmptyDir(t *testing.T) {
	root := newTree(t, nil)

	out := newTool(t, root, Limits{}).Tool().Execute(context.Background(), map[string]any{"path": "."})

	assert.Equal(t, "(empty directory)", out.Output)
}
