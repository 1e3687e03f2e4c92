package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Cyclone1070/kiro/internal/approval"
	"github.com/Cyclone1070/kiro/internal/conversation"
	"github.com/Cyclone1070/kiro/internal/tool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSink_PersistsTurnsInOrder(t *testing.T) {
	s := openTemp(t)
	base := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	conv := conversation.New(s.Sink("s1"))

	conv.Append(conversation.Turn{Role: conversation.RoleUser, Content: "read main.go", Time: base})
	conv.Append(conversation.Turn{Role: conversation.RoleAssistant, Content: `{"tool":"read_file"}`, Time: base.Add(time.Second)})
	conv.Append(conversation.Turn{
		Role:     conversation.RoleToolResult,
		Content:  "package main",
		ToolCall: &conversation.ToolCall{Name: "read_file"},
		Time:     base.Add(2 * time.Second),
	})

	records, err := s.Records(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, conv.Records(), records)
}

func TestRecords_UnknownSession(t *testing.T) {
	s := openTemp(t)

	_, err := s.Records(context.Background(), "nope")

	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessions_MostRecentFirst(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.AppendTurn(ctx, "old", 0, conversation.Turn{Role: conversation.RoleUser, Content: "a", Time: base}))
	require.NoError(t, s.AppendTurn(ctx, "new", 0, conversation.Turn{Role: conversation.RoleUser, Content: "b", Time: base.Add(time.Hour)}))
	require.NoError(t, s.AppendTurn(ctx, "new", 1, conversation.Turn{Role: conversation.RoleAssistant, Content: "c", Time: base.Add(2 * time.Hour)}))

	sessions, err := s.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "new", sessions[0].ID)
	assert.Equal(t, 2, sessions[0].Turns)
	assert.Equal(t, base.Add(time.Hour), sessions[0].StartedAt)
	assert.Equal(t, "old", sessions[1].ID)
}

func TestResolutionHook_StoresChange(t *testing.T) {
	s := openTemp(t)
	proposed := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	s.ResolutionHook("s1", approval.Resolution{
		Change: approval.PendingChange{
			ID: "c1", Tool: "create_file", Kind: tool.KindCreate, Target: "notes.txt",
			Reason: "user asked", Status: approval.StatusApproved, CreatedAt: proposed,
		},
		Outcome:    tool.Succeed("Created file: notes.txt (5 bytes)"),
		ResolvedAt: proposed.Add(time.Minute),
	})
	s.ResolutionHook("s1", approval.Resolution{
		Change: approval.PendingChange{
			ID: "c2", Tool: "execute_shell", Kind: tool.KindExecute, Target: "make",
			Status: approval.StatusRejected, CreatedAt: proposed,
		},
		Outcome:    tool.Failf("change rejected by user"),
		ResolvedAt: proposed.Add(2 * time.Minute),
	})

	changes, err := s.Changes(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, "c1", changes[0].ChangeID)
	assert.True(t, changes[0].Success)
	assert.Equal(t, "Created file: notes.txt (5 bytes)", changes[0].Outcome)
	assert.Equal(t, proposed.Add(time.Minute), changes[0].ResolvedAt)
	assert.Equal(t, approval.StatusRejected, changes[1].Status)
	assert.False(t, changes[1].Success)
	assert.Empty(t, changes[1].Reason)
}
