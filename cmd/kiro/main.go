// Package main is the kiro command: a local coding agent that proposes
// workspace changes and applies them only after approval.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/Cyclone1070/kiro/internal/config"
	"github.com/Cyclone1070/kiro/internal/logging"
	"github.com/Cyclone1070/kiro/internal/mcp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var version = "dev"

// app carries the global flags and the seams tests replace.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	configPath string
	logLevel   string
	workspace  string

	newBackend backendFactory
}

func newApp() *app {
	return &app{
		in:         os.Stdin,
		out:        os.Stdout,
		errOut:     os.Stderr,
		newBackend: createBackend,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "kiro",
		Short: "Local coding agent with approval-gated changes",
		Long: `kiro drives a local language model through a tool-calling loop.
Reads run immediately; every write, edit, delete or shell command is parked
as a pending change until you approve or reject it.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default is $HOME/.config/kiro/config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	root.PersistentFlags().StringVarP(&a.workspace, "workspace", "w", "", "workspace root (default is the current directory)")

	root.AddCommand(
		newChatCmd(a),
		newAskCmd(a),
		newServeCmd(a),
		newModelsCmd(a),
		newToolsCmd(a),
		newHistoryCmd(a),
		newConfigCmd(a),
	)
	return root
}

// loadConfig reads --config when given, otherwise the dotfile, and applies
// flag overrides.
func (a *app) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.NewLoader().LoadFile(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.workspace != "" {
		cfg.Agent.WorkspaceRoot = a.workspace
	}
	return cfg, nil
}

// newLogger builds the process logger. Interactive commands pass io.Discard
// so log lines never land on top of the terminal UI unless log.file is set.
func (a *app) newLogger(cfg *config.Config, w io.Writer) (zerolog.Logger, func() error, error) {
	logger, closer, err := logging.New(cfg.Log, w)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	return logger.With().Str("version", version).Logger(), closer, nil
}

func main() {
	mcp.ClientVersion = version
	if err := newRootCmd(newApp()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
