package mcp

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Cyclone1070/kiro/internal/config"
	"github.com/Cyclone1070/kiro/internal/tool"
	"github.com/rs/zerolog"
)

type toolRegistrar interface {
	RegisterDynamic(provider string, tools []tool.Tool) error
	Unregister(provider string) int
}

// ServerStatus summarises a connected server.
type ServerStatus struct {
	Name      string
	Transport string
	Tools     int
	Gated     bool
}

type connection struct {
	client *Client
	status ServerStatus
}

// Manager owns the MCP connections and keeps their tools registered.
type Manager struct {
	registry toolRegistrar
	logger   zerolog.Logger
	timeout  time.Duration
	dial     func(ctx context.Context, cfg config.MCPServerConfig, logger zerolog.Logger) (Transport, error)

	mu    sync.Mutex
	conns map[string]*connection
}

// NewManager creates a manager that registers discovered tools in registry.
func NewManager(registry toolRegistrar, connectTimeout time.Duration, logger zerolog.Logger) *Manager {
	if registry == nil {
		panic("registry is required")
	}
	if connectTimeout <= 0 {
		connectTimeout = 30 * time.Second
	}
	return &Manager{
		registry: registry,
		logger:   logger,
		timeout:  connectTimeout,
		dial:     Dial,
		conns:    make(map[string]*connection),
	}
}

// ConnectAll connects every enabled server. A server that fails is logged
// and skipped; the joined errors are returned alongside.
func (m *Manager) ConnectAll(ctx context.Context, servers []config.MCPServerConfig) error {
	var errs []error
	for _, s := range servers {
		if !s.Enabled {
			m.logger.Debug().Str("mcp_server", s.Name).Msg("skipping disabled MCP server")
			continue
		}
		if err := m.Connect(ctx, s); err != nil {
			m.logger.Warn().Err(err).Str("mcp_server", s.Name).Msg("MCP server unavailable")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Connect starts one server, performs the handshake and registers its
// tools under "<name>/".
func (m *Manager) Connect(ctx context.Context, cfg config.MCPServerConfig) error {
	m.mu.Lock()
	_, exists := m.conns[cfg.Name]
	m.mu.Unlock()
	if exists {
		return fmt.Errorf("mcp: server %q already connected", cfg.Name)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	t, err := m.dial(ctx, cfg, m.logger)
	if err != nil {
		return fmt.Errorf("mcp: connect %s: %w", cfg.Name, err)
	}
	client, err := NewClient(ctx, cfg.Name, t)
	if err != nil {
		return err
	}

	if err := m.registry.RegisterDynamic(cfg.Name, Adapt(client, cfg.RequireApproval)); err != nil {
		_ = client.Close()
		return fmt.Errorf("mcp: register %s tools: %w", cfg.Name, err)
	}

	transport := cfg.Transport
	if transport == "" {
		transport = config.TransportStdio
	}
	m.mu.Lock()
	m.conns[cfg.Name] = &connection{
		client: client,
		status: ServerStatus{Name: cfg.Name, Transport: transport, Tools: len(client.Tools()), Gated: cfg.RequireApproval},
	}
	m.mu.Unlock()

	m.logger.Info().
		Str("mcp_server", cfg.Name).
		Str("server_name", client.Info().ServerInfo.Name).
		Int("tools", len(client.Tools())).
		Msg("connected MCP server")
	return nil
}

// Disconnect unregisters a server's tools and closes the connection.
func (m *Manager) Disconnect(name string) error {
	m.mu.Lock()
	conn, ok := m.conns[name]
	delete(m.conns, name)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotConnected, name)
	}
	removed := m.registry.Unregister(name)
	m.logger.Info().Str("mcp_server", name).Int("tools", removed).Msg("disconnected MCP server")
	return conn.client.Close()
}

// CloseAll disconnects every server.
func (m *Manager) CloseAll() error {
	var errs []error
	for _, s := range m.Servers() {
		if err := m.Disconnect(s.Name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Servers lists connected servers sorted by name.
func (m *Manager) Servers() []ServerStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ServerStatus, 0, len(m.conns))
	for _, c := range m.conns {
		out = append(out, c.status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
