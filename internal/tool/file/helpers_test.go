package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Cyclone1070/kiro/internal/tool"
	"github.com/Cyclone1070/kiro/internal/tool/service/fs"
	"github.com/Cyclone1070/kiro/internal/tool/service/path"
	"github.com/stretchr/testify/require"
)

type workspace struct {
	root  string
	tools map[string]tool.Tool
}

func newWorkspace(t *testing.T, maxFileSize int64) *workspace {
	t.Helper()
	root, err := path.CanonicaliseRoot(t.TempDir())
	require.NoError(t, err)

	ts := NewToolset(fs.NewOSFileSystem(), path.NewResolver(root), maxFileSize)
	tools := make(map[string]tool.Tool)
	for _, tl := range ts.Tools() {
		tools[tl.Declaration().Name] = tl
	}
	return &workspace{root: root, tools: tools}
}

func (w *workspace) write(t *testing.T, rel, body string) {
	t.Helper()
	abs := filepath.Join(w.root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(body), 0o644))
}

func (w *workspace) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(w.root, rel))
	require.NoError(t, err)
	return string(data)
}

func (w *workspace) exists(rel string) bool {
	_, err := os.Stat(filepath.Join(w.root, rel))
	return err == nil
}

func (w *workspace) plan(t *testing.T, name string, args map[string]any) (*tool.Change, error) {
	t.Helper()
	m, ok := w.tools[name].(tool.Mutating)
	require.True(t, ok, "%s should be mutating", name)
	return m.Plan(context.Background(), args)
}

func (w *workspace) exec(name string, args map[string]any) tool.Outcome {
	return w.tools[name].Execute(context.Background(), args)
}
