// Package executor runs external processes with bounded output and a
// timeout that interrupts before killing.
package executor

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

// Result is the outcome of a finished command.
type Result struct {
	Stdout    string
	Stderr    string
	ExitCode  int
	Truncated bool
	Duration  time.Duration
}

// Limits bound a command's output and shutdown.
type Limits struct {
	MaxOutputBytes int           // per stream
	GracePeriod    time.Duration // between interrupt and kill
}

// OSCommandExecutor runs commands with os/exec.
type OSCommandExecutor struct {
	limits Limits
}

// NewOSCommandExecutor creates an executor. Zero limits fall back to 1MB of
// output per stream and a two second grace period.
func NewOSCommandExecutor(limits Limits) *OSCommandExecutor {
	if limits.MaxOutputBytes <= 0 {
		limits.MaxOutputBytes = 1 << 20
	}
	if limits.GracePeriod <= 0 {
		limits.GracePeriod = 2 * time.Second
	}
	return &OSCommandExecutor{limits: limits}
}

// Run executes command and waits for it, or for ctx, or for timeout.
// A zero timeout waits until ctx is done. On timeout the process receives
// an interrupt, then a kill after the grace period, and ErrTimeout is
// returned alongside whatever output was captured.
func (e *OSCommandExecutor) Run(ctx context.Context, command []string, dir string, env []string, timeout time.Duration) (*Result, error) {
	if len(command) == 0 {
		return nil, os.ErrInvalid
	}

	cmd := exec.Command(command[0], command[1:]...)
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdin = nil

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &CommandError{Cmd: command[0], Stage: "start", Cause: err}
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, &CommandError{Cmd: command[0], Stage: "start", Cause: err}
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, &CommandError{Cmd: command[0], Stage: "start", Cause: err}
	}

	var stdout, stderr string
	var truncated bool
	collectDone := make(chan struct{})
	go func() {
		stdout, stderr, truncated = e.collectOutput(stdoutPipe, stderrPipe)
		close(collectDone)
	}()

	done := make(chan error, 1)
	go func() {
		<-collectDone
		done <- cmd.Wait()
	}()

	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	var execErr error
	select {
	case execErr = <-done:
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		execErr = ctx.Err()
	case <-timer:
		_ = cmd.Process.Signal(os.Interrupt)
		select {
		case <-done:
		case <-time.After(e.limits.GracePeriod):
			_ = cmd.Process.Kill()
			<-done
		}
		execErr = ErrTimeout
	}

	res := &Result{
		Stdout:    stdout,
		Stderr:    stderr,
		Truncated: truncated,
		Duration:  time.Since(start),
	}
	switch {
	case execErr == nil:
	case errors.Is(execErr, ErrTimeout), errors.Is(execErr, context.Canceled), errors.Is(execErr, context.DeadlineExceeded):
		res.ExitCode = -1
	default:
		res.ExitCode = exitCode(execErr)
	}
	return res, execErr
}

func (e *OSCommandExecutor) collectOutput(stdout, stderr io.Reader) (string, string, bool) {
	stdoutCollector := newCollector(e.limits.MaxOutputBytes, 8000)
	stderrCollector := newCollector(e.limits.MaxOutputBytes, 8000)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = io.Copy(stdoutCollector, stdout)
	}()
	go func() {
		defer wg.Done()
		_, _ = io.Copy(stderrCollector, stderr)
	}()
	wg.Wait()

	truncated := stdoutCollector.Truncated() || stderrCollector.Truncated()
	return stdoutCollector.String(), stderrCollector.String(), truncated
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
