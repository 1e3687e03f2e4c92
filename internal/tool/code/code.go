// Package code provides the approval-gated execute_code tool.
package code

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/Cyclone1070/kiro/internal/tool"
	"github.com/Cyclone1070/kiro/internal/tool/service/executor"
)

// Options configure the code tool.
type Options struct {
	Interpreter    string        // default "python3"; may carry flags
	DefaultTimeout time.Duration // default 30s
}

// CodeTool plans interpreter runs and executes them once approved.
type CodeTool struct {
	exec        commandExecutor
	root        string
	interpreter []string
	timeout     time.Duration
}

// NewCodeTool creates the tool. Snippets run with root as the working
// directory.
func NewCodeTool(exec commandExecutor, root string, opts Options) *CodeTool {
	if exec == nil {
		panic("exec is required")
	}
	interp := strings.Fields(opts.Interpreter)
	if len(interp) == 0 {
		interp = []string{"python3"}
	}
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = 30 * time.Second
	}
	return &CodeTool{exec: exec, root: root, interpreter: interp, timeout: opts.DefaultTimeout}
}

// Tool adapts the interpreter to the mutating tool contract.
func (t *CodeTool) Tool() tool.Mutating {
	return tool.NewMutating(tool.Declaration{
		Name:        "execute_code",
		Description: "Run a Python snippet in the workspace and return its output. Requires user approval.",
		Parameters: &tool.Schema{
			Type: tool.TypeObject,
			Properties: map[string]*tool.Schema{
				"code":            {Type: tool.TypeString, Description: "Python source passed to the interpreter with -c"},
				"timeout_seconds": {Type: tool.TypeInteger, Description: "Timeout in seconds (default 30)"},
				"reason":          {Type: tool.TypeString, Description: "Why the code needs to run, shown to the user"},
			},
			Required: []string{"code"},
		},
	}, t.plan)
}

func (t *CodeTool) plan(ctx context.Context, req *CodeRequest) (*tool.Change, error) {
	timeout := t.timeout
	if req.TimeoutSeconds > 0 {
		timeout = time.Duration(req.TimeoutSeconds) * time.Second
	}
	argv := append(append([]string{}, t.interpreter...), "-c", req.Code)

	return &tool.Change{
		Kind:    tool.KindExecute,
		Target:  strings.Join(t.interpreter, " ") + " -c",
		Payload: req.Code,
		Preview: tool.TextPreview(req.Code),
		Apply: func(ctx context.Context) tool.Outcome {
			return t.run(ctx, argv, timeout)
		},
	}, nil
}

func (t *CodeTool) run(ctx context.Context, argv []string, timeout time.Duration) tool.Outcome {
	res, err := t.exec.Run(ctx, argv, t.root, os.Environ(), timeout)
	switch {
	case errors.Is(err, executor.ErrTimeout):
		return tool.Fail(&TimeoutError{Duration: timeout})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return tool.Fail(err)
	case res == nil:
		return tool.Fail(err)
	}

	if res.ExitCode != 0 {
		msg := strings.TrimSpace(res.Stderr)
		if msg == "" {
			msg = strings.TrimSpace(res.Stdout)
		}
		return tool.Failf("code exited with code %d\n%s", res.ExitCode, msg)
	}
	out := strings.TrimSpace(res.Stdout)
	if res.Truncated {
		out += "\n[output truncated]"
	}
	return tool.Succeed(out)
}
