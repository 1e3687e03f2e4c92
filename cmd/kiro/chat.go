package main

import (
	"context"
	"io"
	"os/signal"
	"syscall"

	"github.com/Cyclone1070/kiro/internal/agent"
	"github.com/Cyclone1070/kiro/internal/provider"
	"github.com/Cyclone1070/kiro/internal/ui"
	"github.com/spf13/cobra"
)

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive session in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
			defer stop()
			return a.runChat(ctx)
		},
	}
}

func (a *app) runChat(ctx context.Context) error {
	deps, err := a.setup(ctx, io.Discard)
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
	deps.Logger.Info().Str("session", sess.ID()).Str("workspace", deps.Root).Msg("chat session started")

	opts := ui.Options{Model: deps.Config.Model.Name}
	if lister, ok := deps.Backend.(provider.ModelLister); ok {
		opts.Models = lister
	}
	return ui.New(ctx, sess, opts).Start()
}
