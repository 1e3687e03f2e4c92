package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Cyclone1070/kiro/internal/agent"
	"github.com/Cyclone1070/kiro/internal/logging"
	"github.com/Cyclone1070/kiro/internal/server"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve sessions over HTTP and websocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.runServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func (a *app) runServe(ctx context.Context, addr string) error {
	deps, err := a.setup(ctx, a.errOut)
	if err != nil {
		return err
	}
	defer deps.Close()
	if addr == "" {
		addr = deps.Config.Server.Addr
	}
	logger := logging.Component(deps.Logger, "server")

	sessions := agent.NewManager(deps.SessionTemplate())
	defer sessions.CloseAll()

	srv := &http.Server{
		Addr: addr,
		Handler: server.New(server.Config{
			Sessions: sessions,
			Metrics:  deps.Metrics,
			Gatherer: deps.Gatherer,
			Logger:   logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if ttl := time.Duration(deps.Config.Agent.IdleTimeout) * time.Second; ttl > 0 {
		go reapIdle(ctx, sessions, ttl, logger)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Str("workspace", deps.Root).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// reapIdle closes sessions nobody has touched for ttl.
func reapIdle(ctx context.Context, sessions *agent.Manager, ttl time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(max(ttl/4, time.Second))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, id := range sessions.CloseIdle(ttl) {
				logger.Info().Str("session", id).Msg("closed idle session")
			}
		}
	}
}
