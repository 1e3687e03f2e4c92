package executor

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_SimpleCommand(t *testing.T) {
	res, err := NewOSCommandExecutor(Limits{}).Run(context.Background(), []string{"echo", "hello"}, "", nil, time.Second)

	require.NoError(t, err)
	assert.Equal(t, "hello", strings.TrimSpace(res.Stdout))
	assert.Equal(t, 0, res.ExitCode)
}

func TestRun_EmptyCommand(t *testing.T) {
	_, err := NewOSCommandExecutor(Limits{}).Run(context.Background(), nil, "", nil, 0)
	assert.ErrorIs(t, err, os.ErrInvalid)
}

func TestRun_NonZeroExit_ReportsCode(t *testing.T) {
	res, err := NewOSCommandExecutor(Limits{}).Run(context.Background(), []string{"sh", "-c", "echo oops >&2; exit 3"}, "", nil, time.Second)

	require.Error(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "oops", strings.TrimSpace(res.Stderr))
}

func TestRun_MissingBinary_IsCommandError(t *testing.T) {
	_, err := NewOSCommandExecutor(Limits{}).Run(context.Background(), []string{"definitely-not-a-real-binary-xyz"}, "", nil, time.Second)

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, "start", cmdErr.Stage)
}

func TestRun_LargeOutput_Truncated(t *testing.T) {
	res, err := NewOSCommandExecutor(Limits{MaxOutputBytes: 10}).Run(context.Background(), []string{"echo", "123456789012345"}, "", nil, time.Second)

	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.Len(t, res.Stdout, 10)
}

func TestRun_Timeout(t *testing.T) {
	exec := NewOSCommandExecutor(Limits{GracePeriod: 100 * time.Millisecond})

	start := time.Now()
	res, err := exec.Run(context.Background(), []string{"sleep", "5"}, "", nil, 100*time.Millisecond)

	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, -1, res.ExitCode)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestRun_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := NewOSCommandExecutor(Limits{}).Run(ctx, []string{"sleep", "5"}, "", nil, 0)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_WorkingDir(t *testing.T) {
	dir := t.TempDir()
	res, err := NewOSCommandExecutor(Limits{}).Run(context.Background(), []string{"pwd"}, dir, nil, time.Second)

	require.NoError(t, err)
	assert.Contains(t, strings.TrimSpace(res.Stdout), dir[strings.LastIndex(dir, "/"):])
}

func TestCollector_Binary(t *testing.T) {
	c := newCollector(100, 8000)
	_, _ = c.Write([]byte{'a', 0, 'b'})
	_, _ = c.Write([]byte("more"))

	assert.Equal(t, "[Binary Content]", c.String())
	assert.True(t, c.Truncated())
}
