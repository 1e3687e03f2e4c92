package todo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTodoTools_WriteThenRead(t *testing.T) {
	store := NewStore()
	tools := Tools(store)
	read, write := tools[0], tools[1]

	out := read.Execute(context.Background(), nil)
	assert.Equal(t, "No todos.", out.Output)

	out = write.Execute(context.Background(), map[string]any{"todos": []any{
		map[string]any{"description": "read config", "status": "completed"},
		map[string]any{"description": "add flag", "status": "in_progress"},
		map[string]any{"description": "write tests"},
	}})
	require.True(t, out.Success, out.Error)

	out = read.Execute(context.Background(), nil)
	assert.Equal(t, "1. [x] read config\n2. [~] add flag\n3. [ ] write tests", out.Output)
}

func TestTodoTools_WriteReplaces(t *testing.T) {
	store := NewStore()
	write := Tools(store)[1]

	write.Execute(context.Background(), map[string]any{"todos": []any{map[string]any{"description": "A"}}})
	write.Execute(context.Background(), map[string]any{"todos": []any{map[string]any{"description": "B", "status": "cancelled"}}})

	assert.Equal(t, []Todo{{Description: "B", Status: StatusCancelled}}, store.Read())
}

func TestTodoTools_InvalidItems(t *testing.T) {
	store := NewStore()
	store.Write([]Todo{{Description: "keep", Status: StatusPending}})
	write := Tools(store)[1]

	out := write.Execute(context.Background(), map[string]any{"todos": []any{map[string]any{"description": "x", "status": "someday"}}})
	assert.False(t, out.Success)
	assert.Contains(t, out.Error, ErrInvalidStatus.Error())

	out = write.Execute(context.Background(), map[string]any{"todos": []any{map[string]any{"description": "  "}}})
	assert.False(t, out.Success)
	assert.Contains(t, out.Error, ErrEmptyDescription.Error())

	assert.Equal(t, "keep", store.Read()[0].Description)
}

func TestStore_ReadReturnsCopy(t *testing.T) {
	store := NewStore()
	store.Write([]Todo{{Description: "a", Status: StatusPending}})

	got := store.Read()
	got[0].Description = "changed"

	assert.Equal(t, "a", store.Read()[0].Description)
}
