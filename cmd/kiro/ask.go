package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Cyclone1070/kiro/internal/agent"
	"github.com/Cyclone1070/kiro/internal/approval"
	"github.com/Cyclone1070/kiro/internal/ui/services"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	askToolStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	askChangeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	askErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type askOptions struct {
	rejectAll bool
	verbose   bool
}

func newAskCmd(a *app) *cobra.Command {
	var opts askOptions
	cmd := &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Run one request and answer approval prompts on stdin",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.runAsk(ctx, strings.Join(args, " "), opts)
		},
	}
	cmd.Flags().BoolVar(&opts.rejectAll, "reject-all", false, "reject every proposed change without prompting")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "print tool activity")
	return cmd
}

func (a *app) runAsk(ctx context.Context, prompt string, opts askOptions) error {
	deps, err := a.setup(ctx, a.errOut)
	if err != nil {
		return err
	}
	defer deps.Close()

	sessions := agent.NewManager(deps.SessionTemplate())
	defer sessions.CloseAll()
	sess, err := sessions.Open("")
	if err != nil {
		return err
	}

	if opts.verbose {
		events, unsubscribe := sess.Subscribe()
		defer unsubscribe()
		go a.printActivity(events)
	}

	result, err := sess.Send(ctx, prompt)
	in := bufio.NewReader(a.in)
	for err == nil && result.State == agent.StateAwaitingApproval {
		change := result.Pending
		if change == nil {
			return errors.New("session is awaiting approval but reported no pending change")
		}
		approved := false
		if !opts.rejectAll {
			approved, err = a.confirm(in, *change)
			if err != nil {
				return err
			}
		}
		result, err = sess.Resolve(ctx, change.ID, approved)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, result.Answer)
	if result.State == agent.StateMaxIterationsReached {
		fmt.Fprintln(a.errOut, askErrorStyle.Render(fmt.Sprintf("stopped after %d iterations", result.Iterations)))
	}
	return nil
}

// confirm shows change and reads a y/n answer. EOF counts as a rejection.
func (a *app) confirm(in *bufio.Reader, change approval.PendingChange) (bool, error) {
	fmt.Fprintln(a.errOut, askChangeStyle.Render(services.DescribeChange(change)))
	if preview := services.RenderPreview(change.Preview); preview != "" {
		fmt.Fprintln(a.errOut, preview)
	}
	for {
		fmt.Fprint(a.errOut, "Apply this change? [y/n] ")
		line, err := in.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(a.errOut)
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("read answer: %w", err)
		}
	}
}

func (a *app) printActivity(events <-chan agent.Event) {
	for ev := range events {
		switch e := ev.(type) {
		case agent.ToolStartEvent:
			fmt.Fprintln(a.errOut, askToolStyle.Render("> "+services.FormatToolDescription(e.ToolName, e.Args)))
		case agent.ToolEndEvent:
			if !e.Outcome.Success {
				fmt.Fprintln(a.errOut, askErrorStyle.Render("  "+e.ToolName+" failed: "+e.Outcome.Error))
			}
		case agent.ErrorEvent:
			fmt.Fprintln(a.errOut, askErrorStyle.Render(e.Err.Error()))
		}
	}
}
