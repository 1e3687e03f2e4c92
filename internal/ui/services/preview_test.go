package services

import (
	"testing"

	"github.com/Cyclone1070/kiro/internal/approval"
	"github.com/Cyclone1070/kiro/internal/tool"
	"github.com/stretchr/testify/assert"
)

func TestFormatToolDescription(t *testing.T) {
	tests := []struct {
		name string
		tool string
		args map[string]any
		want string
	}{
		{"read file", "read_file", map[string]any{"path": "main.go"}, "read_file main.go"},
		{"list default", "list_directory", map[string]any{}, "list_directory ."},
		{"shell", "execute_shell", map[string]any{"command": "go test ./..."}, "execute_shell 'go test ./...'"},
		{"code", "execute_code", map[string]any{"code": "import os\nprint(os.getcwd())"}, "execute_code 'import os ...'"},
		{"search", "web_search", map[string]any{"query": "golang"}, "web_search 'golang'"},
		{"missing arg", "read_file", map[string]any{}, "read_file"},
		{"unknown", "docs/lookup", map[string]any{"q": "x"}, "docs/lookup"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatToolDescription(tt.tool, tt.args))
		})
	}
}

func TestRenderPreview(t *testing.T) {
	assert.Equal(t, "body", RenderPreview(tool.TextPreview("body")))
	assert.Contains(t, RenderPreview(tool.CommandPreview{Command: "ls -la"}), "$ ls -la")
	assert.Contains(t, RenderPreview(tool.CommandPreview{Command: "ls"}), "in .")

	diff := RenderPreview(tool.DiffPreview{Diff: "--- a\n+++ b\n@@ -1 +1 @@\n-old\n+new\n", AddedLines: 1, RemovedLines: 1})
	assert.Contains(t, diff, "+1 -1")
	assert.Contains(t, diff, "old")
	assert.Contains(t, diff, "new")

	assert.Empty(t, RenderPreview(nil))
}

func TestDescribeChange(t *testing.T) {
	assert.Equal(t, "Modify a.go", DescribeChange(approval.PendingChange{Kind: tool.KindModify, Target: "a.go"}))
	assert.Equal(t, "Run make", DescribeChange(approval.PendingChange{Kind: tool.KindExecute, Target: "make"}))
}
