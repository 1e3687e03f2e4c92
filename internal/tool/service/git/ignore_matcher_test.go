package git

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Cyclone1070/kiro/internal/tool/service/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIgnoreMatcher_Patterns(t *testing.T) {
	root := t.TempDir()
	gitignore := "# build output\nbin/\n*.log\r\n\n!keep.log\nnode_modules\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte(gitignore), 0o644))

	m, err := NewIgnoreMatcher(root, fs.NewOSFileSystem())
	require.NoError(t, err)

	tests := []struct {
		path  string
		isDir bool
		want  bool
	}{
		{"bin", true, true},
		{"bin/tool", false, true},
		{"debug.log", false, true},
		{"logs/app.log", false, true},
		{"keep.log", false, false},
		{"src/node_modules", true, true},
		{".git", true, true},
		{".git/HEAD", false, true},
		{"main.go", false, false},
		{".", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, m.ShouldIgnore(tt.path, tt.isDir))
		})
	}
}

func TestIgnoreMatcher_NoGitignore_OnlyIgnoresGitDir(t *testing.T) {
	m, err := NewIgnoreMatcher(t.TempDir(), fs.NewOSFileSystem())
	require.NoError(t, err)

	assert.True(t, m.ShouldIgnore(".git", true))
	assert.False(t, m.ShouldIgnore("bin/tool", false))
	assert.False(t, NoOpMatcher{}.ShouldIgnore(".git", true))
}

func TestSplitPath(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitPath("./a//b/c/"))
	assert.Empty(t, splitPath(""))
}
