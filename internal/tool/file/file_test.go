package file

import (
	"context"
	"strings"
	"testing"

	"github.com/Cyclone1070/kiro/internal/tool"
	"github.com/Cyclone1070/kiro/internal/tool/service/path"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTools_Mutability(t *testing.T) {
	w := newWorkspace(t, 0)

	assert.False(t, tool.IsMutating(w.tools["read_file"]))
	for _, name := range []string{"create_file", "modify_file", "delete_file"} {
		assert.True(t, tool.IsMutating(w.tools[name]), name)
		out := w.exec(name, map[string]any{"path": "x"})
		assert.False(t, out.Success)
		assert.Equal(t, tool.ErrApprovalRequired.Error(), out.Error)
	}
}

func TestReadFile_WholeAndRange(t *testing.T) {
	w := newWorkspace(t, 0)
	w.write(t, "notes/a.txt", "0123456789")

	out := w.exec("read_file", map[string]any{"path": "notes/a.txt"})
	require.True(t, out.Success, out.Error)
	assert.Equal(t, "0123456789", out.Output)

	out = w.exec("read_file", map[string]any{"path": "notes/a.txt", "offset": int64(2), "limit": int64(3)})
	require.True(t, out.Success, out.Error)
	assert.Equal(t, "234\n[bytes 2-5 of 10]", out.Output)
}

func TestReadFile_Failures(t *testing.T) {
	w := newWorkspace(t, 8)
	w.write(t, "big.txt", "this is more than eight bytes")
	w.write(t, "bin.dat", "a\x00b")
	w.write(t, "dir/x.txt", "x")

	tests := []struct {
		name string
		path string
		want string
	}{
		{"missing", "nope.txt", "file does not exist"},
		{"directory", "dir", "path is a directory"},
		{"too large", "big.txt", "file too large"},
		{"binary", "bin.dat", "file is binary"},
		{"outside", "../etc/passwd", "path traversal / absolute path rejected"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := w.exec("read_file", map[string]any{"path": tt.path})
			assert.False(t, out.Success)
			assert.Contains(t, out.Error, tt.want)
		})
	}
}

func TestCreateFile_PlanThenApply(t *testing.T) {
	w := newWorkspace(t, 0)

	ch, err := w.plan(t, "create_file", map[string]any{"path": "src/new/hello.go", "content": "package hello\n", "reason": "scaffold"})
	require.NoError(t, err)

	assert.Equal(t, tool.KindCreate, ch.Kind)
	assert.Equal(t, "src/new/hello.go", ch.Target)
	assert.Equal(t, "scaffold", ch.Reason)
	assert.Equal(t, tool.TextPreview("package hello\n"), ch.Preview)
	assert.False(t, w.exists("src/new/hello.go"), "planning must not write")

	out := ch.Apply(context.Background())
	require.True(t, out.Success, out.Error)
	assert.Equal(t, "package hello\n", w.read(t, "src/new/hello.go"))
}

func TestCreateFile_AbsolutePath_RejectedAtPlan(t *testing.T) {
	w := newWorkspace(t, 0)

	_, err := w.plan(t, "create_file", map[string]any{"path": "/etc/passwd", "content": "x"})

	assert.ErrorIs(t, err, path.ErrPathRejected)
	assert.Contains(t, err.Error(), "path traversal / absolute path rejected")
}

func TestCreateFile_Existing_Fails(t *testing.T) {
	w := newWorkspace(t, 0)
	w.write(t, "a.txt", "old")

	_, err := w.plan(t, "create_file", map[string]any{"path": "a.txt", "content": "new"})
	assert.ErrorIs(t, err, ErrFileExists)
}

func TestCreateFile_CreatedBeforeApply_Fails(t *testing.T) {
	w := newWorkspace(t, 0)
	ch, err := w.plan(t, "create_file", map[string]any{"path": "a.txt", "content": "mine"})
	require.NoError(t, err)

	w.write(t, "a.txt", "theirs")
	out := ch.Apply(context.Background())

	assert.False(t, out.Success)
	assert.Equal(t, "theirs", w.read(t, "a.txt"))
}

func TestModifyFile_DashDashLines_CountedAsChanges(t *testing.T) {
	w := newWorkspace(t, 0)
	w.write(t, "init.lua", "-- old comment\nlocal x = 1\n")

	ch, err := w.plan(t, "modify_file", map[string]any{
		"path": "init.lua",
		"operations": []any{
			map[string]any{"before": "-- old comment", "after": "-- new comment"},
		},
	})
	require.NoError(t, err)

	diff, ok := ch.Preview.(tool.DiffPreview)
	require.True(t, ok)
	assert.Contains(t, diff.Diff, "\n--- old comment\n")
	assert.Equal(t, 1, diff.AddedLines)
	assert.Equal(t, 1, diff.RemovedLines)
}

func TestComputeUnifiedDiff_PlusPlusLine_CountedAsAdded(t *testing.T) {
	_, added, removed := computeUnifiedDiff("x.txt", "a\n", "a\n++b\n")

	assert.Equal(t, 1, added)
	assert.Equal(t, 0, removed)
}

func TestModifyFile_Operations_DiffPreview(t *testing.T) {
	w := newWorkspace(t, 0)
	w.write(t, "main.go", "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n")

	ch, err := w.plan(t, "modify_file", map[string]any{
		"path": "main.go",
		"operations": []any{
			map[string]any{"before": `println("hi")`, "after": `println("hello")`},
		},
	})
	require.NoError(t, err)

	diff, ok := ch.Preview.(tool.DiffPreview)
	require.True(t, ok)
	assert.Equal(t, 1, diff.AddedLines)
	assert.Equal(t, 1, diff.RemovedLines)
	assert.Contains(t, diff.Diff, "--- a/main.go")
	assert.Contains(t, diff.Diff, `+	println("hello")`)
	assert.Contains(t, w.read(t, "main.go"), `"hi"`, "planning must not write")

	out := ch.Apply(context.Background())
	require.True(t, out.Success, out.Error)
	assert.Contains(t, w.read(t, "main.go"), `println("hello")`)
	assert.Equal(t, "Modified file: main.go (+1 -1 lines)", out.Output)
}

func TestModifyFile_FullContent_PreservesCRLF(t *testing.T) {
	w := newWorkspace(t, 0)
	w.write(t, "a.txt", "one\r\ntwo\r\n")

	ch, err := w.plan(t, "modify_file", map[string]any{"path": "a.txt", "content": "one\nthree\n"})
	require.NoError(t, err)
	require.True(t, ch.Apply(context.Background()).Success)

	assert.Equal(t, "one\r\nthree\r\n", w.read(t, "a.txt"))
}

func TestModifyFile_PlanErrors(t *testing.T) {
	w := newWorkspace(t, 0)
	w.write(t, "a.txt", "x x y")

	tests := []struct {
		name string
		args map[string]any
		want error
	}{
		{"missing file", map[string]any{"path": "nope.txt", "content": "z"}, ErrFileMissing},
		{"no content or ops", map[string]any{"path": "a.txt"}, ErrContentOrOperations},
		{"snippet not found", map[string]any{"path": "a.txt", "operations": []any{map[string]any{"before": "q", "after": "r"}}}, ErrSnippetNotFound},
		{"ambiguous", map[string]any{"path": "a.txt", "operations": []any{map[string]any{"before": "x", "after": "r"}}}, ErrReplacementCountMismatch},
		{"unchanged", map[string]any{"path": "a.txt", "content": "x x y"}, ErrNoChange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := w.plan(t, "modify_file", tt.args)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestModifyFile_ExpectedReplacementsAndAppend(t *testing.T) {
	w := newWorkspace(t, 0)
	w.write(t, "a.txt", "x x y")

	ch, err := w.plan(t, "modify_file", map[string]any{"path": "a.txt", "operations": []any{
		map[string]any{"before": "x", "after": "z", "expected_replacements": int64(2)},
		map[string]any{"before": "", "after": "\nend"},
	}})
	require.NoError(t, err)
	require.True(t, ch.Apply(context.Background()).Success)

	assert.Equal(t, "z z y\nend", w.read(t, "a.txt"))
}

func TestModifyFile_ChangedAfterPlan_Conflict(t *testing.T) {
	w := newWorkspace(t, 0)
	w.write(t, "a.txt", "v1")

	ch, err := w.plan(t, "modify_file", map[string]any{"path": "a.txt", "content": "v2"})
	require.NoError(t, err)
	w.write(t, "a.txt", "edited elsewhere")

	out := ch.Apply(context.Background())

	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "edit conflict")
	assert.Equal(t, "edited elsewhere", w.read(t, "a.txt"))
}

func TestDeleteFile(t *testing.T) {
	w := newWorkspace(t, 0)
	w.write(t, "old.txt", strings.Repeat("z", 10))

	ch, err := w.plan(t, "delete_file", map[string]any{"path": "old.txt"})
	require.NoError(t, err)
	assert.Equal(t, tool.KindDelete, ch.Kind)
	assert.Contains(t, tool.PreviewText(ch.Preview), "Delete old.txt (10 bytes)")
	assert.True(t, w.exists("old.txt"))

	out := ch.Apply(context.Background())
	require.True(t, out.Success, out.Error)
	assert.False(t, w.exists("old.txt"))

	out = ch.Apply(context.Background())
	assert.False(t, out.Success)
}

func TestDeleteFile_Missing_FailsAtPlan(t *testing.T) {
	w := newWorkspace(t, 0)

	_, err := w.plan(t, "delete_file", map[string]any{"path": "ghost.txt"})

	assert.ErrorIs(t, err, ErrFileMissing)
}
