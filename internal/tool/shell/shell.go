// Package shell provides the approval-gated execute_shell tool.
package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Cyclone1070/kiro/internal/tool"
	"github.com/Cyclone1070/kiro/internal/tool/service/executor"
)

// BuiltinDeny lists command fragments that are never proposed.
var BuiltinDeny = []string{"rm -rf /", "format", "del /f", "shutdown", "reboot", "mkfs", ":(){ :|:& };:"}

// Options configure the shell tool.
type Options struct {
	DefaultTimeout time.Duration // default 30s
	Deny           []string      // added to BuiltinDeny
}

// ShellTool plans shell commands and runs them once approved.
type ShellTool struct {
	fs       fileSystem
	exec     commandExecutor
	resolver pathResolver
	opts     Options
	deny     []string
}

// NewShellTool creates the tool.
func NewShellTool(fs fileSystem, exec commandExecutor, resolver pathResolver, opts Options) *ShellTool {
	if exec == nil {
		panic("exec is required")
	}
	if resolver == nil {
		panic("resolver is required")
	}
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = 30 * time.Second
	}
	deny := make([]string, 0, len(BuiltinDeny)+len(opts.Deny))
	for _, p := range append(append([]string{}, BuiltinDeny...), opts.Deny...) {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			deny = append(deny, p)
		}
	}
	return &ShellTool{fs: fs, exec: exec, resolver: resolver, opts: opts, deny: deny}
}

// Tool adapts the shell to the mutating tool contract.
func (t *ShellTool) Tool() tool.Mutating {
	return tool.NewMutating(tool.Declaration{
		Name:        "execute_shell",
		Description: "Run a shell command in the workspace. Requires user approval. Dangerous commands are refused.",
		Parameters: &tool.Schema{
			Type: tool.TypeObject,
			Properties: map[string]*tool.Schema{
				"command":         {Type: tool.TypeString, Description: "Command line passed to sh -c"},
				"working_dir":     {Type: tool.TypeString, Description: "Directory relative to the workspace root (default '.')"},
				"timeout_seconds": {Type: tool.TypeInteger, Description: "Timeout in seconds (default 30)"},
				"env_files":       {Type: tool.TypeArray, Items: &tool.Schema{Type: tool.TypeString}, Description: ".env files to load"},
				"reason":          {Type: tool.TypeString, Description: "Why the command is needed, shown to the user"},
			},
			Required: []string{"command"},
		},
	}, t.plan)
}

// Denied returns the deny pattern cmd matches, if any.
func (t *ShellTool) Denied(cmd string) (string, bool) {
	lower := strings.ToLower(cmd)
	for _, p := range t.deny {
		if strings.Contains(lower, p) {
			return p, true
		}
	}
	return "", false
}

func (t *ShellTool) plan(ctx context.Context, req *ShellRequest) (*tool.Change, error) {
	if p, denied := t.Denied(req.Command); denied {
		return nil, &DeniedError{Command: req.Command, Pattern: p}
	}

	dirAbs, err := t.resolver.Abs(req.WorkingDir)
	if err != nil {
		return nil, err
	}
	if info, err := t.fs.Stat(dirAbs); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("working directory %s is not a directory", req.WorkingDir)
	}
	dirRel := t.resolver.RelOf(dirAbs)

	envFiles := make([]string, 0, len(req.EnvFiles))
	for _, f := range req.EnvFiles {
		abs, err := t.resolver.Abs(f)
		if err != nil {
			return nil, err
		}
		envFiles = append(envFiles, abs)
	}

	timeout := t.opts.DefaultTimeout
	if req.TimeoutSeconds > 0 {
		timeout = time.Duration(req.TimeoutSeconds) * time.Second
	}

	return &tool.Change{
		Kind:    tool.KindExecute,
		Target:  req.Command,
		Payload: req.Command,
		Preview: tool.CommandPreview{Command: req.Command, WorkingDir: dirRel},
		Apply: func(ctx context.Context) tool.Outcome {
			return t.run(ctx, req.Command, dirAbs, envFiles, timeout)
		},
	}, nil
}

func (t *ShellTool) run(ctx context.Context, command, dir string, envFiles []string, timeout time.Duration) tool.Outcome {
	env := os.Environ()
	for _, f := range envFiles {
		vars, err := ParseEnvFile(t.fs, f)
		if err != nil {
			return tool.Fail(err)
		}
		for k, v := range vars {
			env = append(env, k+"="+v)
		}
	}

	res, err := t.exec.Run(ctx, []string{"sh", "-c", command}, dir, env, timeout)
	switch {
	case errors.Is(err, executor.ErrTimeout):
		return tool.Fail(&TimeoutError{Command: command, Duration: timeout})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return tool.Fail(err)
	case res == nil:
		return tool.Fail(err)
	}

	out := formatResult(res)
	if res.ExitCode != 0 {
		return tool.Failf("command exited with code %d\n%s", res.ExitCode, out)
	}
	return tool.Succeed(out)
}

func formatResult(res *executor.Result) string {
	var b strings.Builder
	if s := strings.TrimRight(res.Stdout, "\n"); s != "" {
		b.WriteString(s)
		b.WriteByte('\n')
	}
	if s := strings.TrimRight(res.Stderr, "\n"); s != "" {
		b.WriteString("[stderr]\n")
		b.WriteString(s)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "[exit code %d]", res.ExitCode)
	if res.Truncated {
		b.WriteString(" [output truncated]")
	}
	return b.String()
}
