package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Cyclone1070/kiro/internal/agent"
	"github.com/Cyclone1070/kiro/internal/config"
	"github.com/Cyclone1070/kiro/internal/logging"
	"github.com/Cyclone1070/kiro/internal/mcp"
	"github.com/Cyclone1070/kiro/internal/metrics"
	"github.com/Cyclone1070/kiro/internal/provider"
	"github.com/Cyclone1070/kiro/internal/provider/gemini"
	"github.com/Cyclone1070/kiro/internal/provider/ollama"
	"github.com/Cyclone1070/kiro/internal/store"
	"github.com/Cyclone1070/kiro/internal/tool"
	"github.com/Cyclone1070/kiro/internal/tool/code"
	"github.com/Cyclone1070/kiro/internal/tool/directory"
	"github.com/Cyclone1070/kiro/internal/tool/file"
	"github.com/Cyclone1070/kiro/internal/tool/pdf"
	"github.com/Cyclone1070/kiro/internal/tool/registry"
	"github.com/Cyclone1070/kiro/internal/tool/search"
	"github.com/Cyclone1070/kiro/internal/tool/service/executor"
	"github.com/Cyclone1070/kiro/internal/tool/service/fs"
	"github.com/Cyclone1070/kiro/internal/tool/service/git"
	"github.com/Cyclone1070/kiro/internal/tool/service/path"
	"github.com/Cyclone1070/kiro/internal/tool/shell"
	"github.com/Cyclone1070/kiro/internal/tool/todo"
	"github.com/Cyclone1070/kiro/internal/tool/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Dependencies holds the components a command runs against.
type Dependencies struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Root     string
	Registry *registry.Registry
	Backend  provider.Backend
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Store    *store.Store // nil when history is disabled
	MCP      *mcp.Manager

	closers []func() error
}

// setup loads config and builds everything a session needs. logOut receives
// log lines when log.file is unset.
func (a *app) setup(ctx context.Context, logOut io.Writer) (*Dependencies, error) {
	return a.setupWith(ctx, logOut, a.newBackend)
}

// setupWith is setup with an explicit backend factory; nil leaves Backend
// unset for commands that never talk to a model.
func (a *app) setupWith(ctx context.Context, logOut io.Writer, newBackend backendFactory) (*Dependencies, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	logger, closeLog, err := a.newLogger(cfg, logOut)
	if err != nil {
		return nil, err
	}
	deps := &Dependencies{Config: cfg, Logger: logger}
	deps.closers = append(deps.closers, closeLog)

	if err := deps.build(ctx, newBackend); err != nil {
		_ = deps.Close()
		return nil, err
	}
	return deps, nil
}

type backendFactory func(ctx context.Context, cfg *config.Config) (provider.Backend, error)

func (d *Dependencies) build(ctx context.Context, newBackend backendFactory) error {
	cfg := d.Config

	root, err := workspaceRoot(cfg.Agent.WorkspaceRoot)
	if err != nil {
		return err
	}
	d.Root = root

	d.Registry, err = registry.New(createTools(cfg, root, logging.Component(d.Logger, "tools"))...)
	if err != nil {
		return fmt.Errorf("register tools: %w", err)
	}

	if newBackend != nil {
		if d.Backend, err = newBackend(ctx, cfg); err != nil {
			return err
		}
	}

	reg := prometheus.NewRegistry()
	d.Metrics = metrics.New(reg)
	d.Gatherer = reg

	if cfg.Store.Enabled {
		st, err := store.Open(historyPath(cfg.Store.Path), logging.Component(d.Logger, "store"))
		if err != nil {
			return err
		}
		d.Store = st
		d.closers = append(d.closers, st.Close)
	}

	d.MCP = mcp.NewManager(d.Registry, time.Duration(cfg.MCP.ConnectTimeout)*time.Second, logging.Component(d.Logger, "mcp"))
	d.closers = append(d.closers, d.MCP.CloseAll)
	if err := d.MCP.ConnectAll(ctx, cfg.MCP.Servers); err != nil {
		// Built-in tools still work; a dead MCP server is not fatal.
		d.Logger.Warn().Err(err).Msg("some MCP servers failed to connect")
	}
	return nil
}

// SessionTemplate is the configuration every new session starts from.
func (d *Dependencies) SessionTemplate() agent.SessionConfig {
	cfg := agent.SessionConfig{
		Backend:        d.Backend,
		Tools:          d.Registry,
		Options:        provider.OptionsFromConfig(d.Config.Model),
		SystemPrompt:   d.Config.Agent.SystemPrompt,
		MaxIterations:  d.Config.Agent.MaxIterations,
		ApprovalExpiry: time.Duration(d.Config.Approval.ExpirySeconds) * time.Second,
		Logger:         logging.Component(d.Logger, "agent"),
		Metrics:        d.Metrics,
	}
	if d.Store != nil {
		cfg.NewSink = d.Store.Sink
		cfg.OnResolution = d.Store.ResolutionHook
	}
	return cfg
}

// Close releases resources in reverse order of acquisition.
func (d *Dependencies) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}

func workspaceRoot(configured string) (string, error) {
	root := configured
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		root = wd
	}
	canonical, err := path.CanonicaliseRoot(root)
	if err != nil {
		return "", fmt.Errorf("canonicalise workspace root: %w", err)
	}
	return canonical, nil
}

func historyPath(configured string) string {
	if configured != "" {
		return configured
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "kiro", "history.db")
	}
	return filepath.Join(home, ".local", "share", "kiro", "history.db")
}

// createTools instantiates the built-in tools for the workspace at root.
func createTools(cfg *config.Config, root string, logger zerolog.Logger) []tool.Tool {
	osFS := fs.NewOSFileSystem()
	resolver := path.NewResolver(root)
	commandExecutor := executor.NewOSCommandExecutor(executor.Limits{
		MaxOutputBytes: int(cfg.Tools.DefaultMaxCommandOutputSize),
		GracePeriod:    time.Duration(cfg.Tools.ShellGracefulShutdownMs) * time.Millisecond,
	})

	var ignore interface {
		ShouldIgnore(rel string, isDir bool) bool
	}
	matcher, err := git.NewIgnoreMatcher(root, osFS)
	if err != nil {
		logger.Warn().Err(err).Msg("gitignore unavailable, listing everything")
		ignore = git.NoOpMatcher{}
	} else {
		ignore = matcher
	}

	var tools []tool.Tool
	tools = append(tools, file.NewToolset(osFS, resolver, cfg.Tools.MaxFileSize).Tools()...)
	tools = append(tools,
		directory.NewListDirectoryTool(osFS, resolver, ignore, directory.Limits{
			DefaultLimit: cfg.Tools.DefaultListDirectoryLimit,
			MaxResults:   cfg.Tools.MaxListDirectoryResults,
		}).Tool(),
		search.NewSearchContentTool(osFS, commandExecutor, resolver, search.DefaultLimits).Tool(),
		shell.NewShellTool(osFS, commandExecutor, resolver, shell.Options{
			DefaultTimeout: time.Duration(cfg.Tools.DefaultShellTimeout) * time.Second,
			Deny:           cfg.Tools.ShellDeny,
		}).Tool(),
		code.NewCodeTool(commandExecutor, root, code.Options{
			Interpreter:    cfg.Tools.CodeInterpreter,
			DefaultTimeout: time.Duration(cfg.Tools.DefaultShellTimeout) * time.Second,
		}).Tool(),
	)
	tools = append(tools, web.New(web.Options{
		UserAgent:      cfg.Tools.UserAgent,
		Timeout:        time.Duration(cfg.Tools.WebTimeout) * time.Second,
		MaxResults:     cfg.Tools.SearchMaxResults,
		FetchMaxLength: cfg.Tools.FetchMaxLength,
	}).Tools()...)
	tools = append(tools, pdf.New(resolver, pdf.OpenFile, cfg.Tools.PDFMaxOutput).Tools()...)
	tools = append(tools, todo.Tools(todo.NewStore())...)
	return tools
}

// createBackend connects to the configured model backend.
func createBackend(ctx context.Context, cfg *config.Config) (provider.Backend, error) {
	switch cfg.Model.Backend {
	case config.BackendGemini:
		apiKey := cfg.Model.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			return nil, errors.New("gemini backend needs model.api_key or GEMINI_API_KEY")
		}
		client, err := gemini.Dial(ctx, apiKey)
		if err != nil {
			return nil, fmt.Errorf("connect to gemini: %w", err)
		}
		return gemini.New(client), nil
	default:
		return ollama.New(cfg.Model.BaseURL), nil
	}
}
