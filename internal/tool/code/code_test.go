package code

import (
	"context"
	osexec "os/exec"
	"testing"
	"time"

	"github.com/Cyclone1070/kiro/internal/tool"
	"github.com/Cyclone1070/kiro/internal/tool/service/executor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockExecutor struct {
	RunFunc func(ctx context.Context, command []string, dir string, env []string, timeout time.Duration) (*executor.Result, error)
	calls   int
}

func (m *mockExecutor) Run(ctx context.Context, command []string, dir string, env []string, timeout time.Duration) (*executor.Result, error) {
	m.calls++
	return m.RunFunc(ctx, command, dir, env, timeout)
}

func TestTool_IsMutating(t *testing.T) {
	ct := NewCodeTool(&mockExecutor{}, t.TempDir(), Options{})

	assert.True(t, tool.IsMutating(ct.Tool()))
	assert.Equal(t, "execute_code", ct.Tool().Declaration().Name)
}

func TestPlan_PreviewAndDeferredRun(t *testing.T) {
	var gotCmd []string
	var gotDir string
	var gotTimeout time.Duration
	exec := &mockExecutor{RunFunc: func(ctx context.Context, command []string, dir string, env []string, timeout time.Duration) (*executor.Result, error) {
		gotCmd, gotDir, gotTimeout = command, dir, timeout
		return &executor.Result{Stdout: "3\n"}, nil
	}}
	root := t.TempDir()
	ct := NewCodeTool(exec, root, Options{})

	ch, err := ct.Tool().Plan(context.Background(), map[string]any{"code": "print(1 + 2)", "reason": "check the sum"})
	require.NoError(t, err)

	assert.Equal(t, tool.KindExecute, ch.Kind)
	assert.Equal(t, tool.TextPreview("print(1 + 2)"), ch.Preview)
	assert.Equal(t, "python3 -c", ch.Target)
	assert.Equal(t, "check the sum", ch.Reason)
	assert.Zero(t, exec.calls, "planning must not run the code")

	out := ch.Apply(context.Background())
	require.True(t, out.Success, out.Error)
	assert.Equal(t, "3", out.Output)
	assert.Equal(t, []string{"python3", "-c", "print(1 + 2)"}, gotCmd)
	assert.Equal(t, root, gotDir)
	assert.Equal(t, 30*time.Second, gotTimeout)
}

func TestPlan_InterpreterWithFlagsAndTimeout(t *testing.T) {
	var gotCmd []string
	var gotTimeout time.Duration
	exec := &mockExecutor{RunFunc: func(ctx context.Context, command []string, dir string, env []string, timeout time.Duration) (*executor.Result, error) {
		gotCmd, gotTimeout = command, timeout
		return &executor.Result{}, nil
	}}
	ct := NewCodeTool(exec, t.TempDir(), Options{Interpreter: "python3 -I"})

	ch, err := ct.Tool().Plan(context.Background(), map[string]any{"code": "pass", "timeout_seconds": int64(5)})
	require.NoError(t, err)
	ch.Apply(context.Background())

	assert.Equal(t, []string{"python3", "-I", "-c", "pass"}, gotCmd)
	assert.Equal(t, 5*time.Second, gotTimeout)
}

func TestPlan_InvalidRequest(t *testing.T) {
	ct := NewCodeTool(&mockExecutor{}, t.TempDir(), Options{})

	_, err := ct.Tool().Plan(context.Background(), map[string]any{"code": "   "})
	assert.ErrorIs(t, err, ErrCodeRequired)

	_, err = ct.Tool().Plan(context.Background(), map[string]any{"code": "pass", "timeout_seconds": int64(-1)})
	assert.ErrorIs(t, err, ErrNegativeTimeout)
}

func TestApply_NonZeroExit_ReturnsStderr(t *testing.T) {
	exec := &mockExecutor{RunFunc: func(context.Context, []string, string, []string, time.Duration) (*executor.Result, error) {
		return &executor.Result{Stderr: "NameError: name 'x' is not defined\n", ExitCode: 1}, nil
	}}
	ct := NewCodeTool(exec, t.TempDir(), Options{})
	ch, err := ct.Tool().Plan(context.Background(), map[string]any{"code": "print(x)"})
	require.NoError(t, err)

	out := ch.Apply(context.Background())

	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "code exited with code 1")
	assert.Contains(t, out.Error, "NameError")
}

func TestApply_Timeout(t *testing.T) {
	exec := &mockExecutor{RunFunc: func(context.Context, []string, string, []string, time.Duration) (*executor.Result, error) {
		return &executor.Result{ExitCode: -1}, executor.ErrTimeout
	}}
	ct := NewCodeTool(exec, t.TempDir(), Options{})
	ch, err := ct.Tool().Plan(context.Background(), map[string]any{"code": "while True: pass", "timeout_seconds": int64(1)})
	require.NoError(t, err)

	out := ch.Apply(context.Background())

	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "timed out after 1s")
}

func TestApply_RealInterpreter(t *testing.T) {
	if _, err := osexec.LookPath("python3"); err != nil {
		t.Skip("python3 not installed")
	}
	ct := NewCodeTool(executor.NewOSCommandExecutor(executor.Limits{}), t.TempDir(), Options{})
	ch, err := ct.Tool().Plan(context.Background(), map[string]any{"code": "print(sum(range(5)))"})
	require.NoError(t, err)

	out := ch.Apply(context.Background())

	require.True(t, out.Success, out.Error)
	assert.Equal(t, "10", out.Output)
}
