// Package mcp connects to Model Context Protocol servers and exposes their
// tools to the agent.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Cyclone1070/kiro/internal/config"
	"github.com/rs/zerolog"
)

// ProtocolVersion is sent in the initialize handshake.
const ProtocolVersion = "2024-11-05"

// ClientVersion identifies this client to servers.
var ClientVersion = "dev"

// ToolInfo describes a tool advertised by tools/list.
type ToolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// ContentItem is one block of a tools/call result.
type ContentItem struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	URI      string `json:"uri,omitempty"`
}

// CallResult is the result of tools/call.
type CallResult struct {
	Content []ContentItem `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// Text joins the textual content blocks.
func (r *CallResult) Text() string {
	parts := make([]string, 0, len(r.Content))
	for _, c := range r.Content {
		switch {
		case c.Text != "":
			parts = append(parts, c.Text)
		case c.URI != "":
			parts = append(parts, fmt.Sprintf("[%s resource: %s]", c.Type, c.URI))
		case c.Type != "" && c.Type != "text":
			parts = append(parts, fmt.Sprintf("[%s content]", c.Type))
		}
	}
	return strings.Join(parts, "\n")
}

type initializeParams struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ClientInfo      clientInfo     `json:"clientInfo"`
}

type clientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ServerInfo is what a server reports from initialize.
type ServerInfo struct {
	ProtocolVersion string     `json:"protocolVersion"`
	ServerInfo      clientInfo `json:"serverInfo"`
}

// Client is a connected MCP server.
type Client struct {
	name      string
	transport Transport
	info      ServerInfo
	tools     []ToolInfo
}

// Dial builds the transport described by cfg.
func Dial(ctx context.Context, cfg config.MCPServerConfig, logger zerolog.Logger) (Transport, error) {
	logger = logger.With().Str("mcp_server", cfg.Name).Logger()
	switch cfg.Transport {
	case config.TransportStdio, "":
		return StartStdio(cfg.Command, cfg.Args, cfg.Env, logger)
	case config.TransportHTTP:
		return NewHTTPTransport(cfg.URL, nil), nil
	case config.TransportWebsocket:
		return DialWebsocket(ctx, cfg.URL, logger)
	default:
		return nil, fmt.Errorf("mcp: unknown transport %q", cfg.Transport)
	}
}

// NewClient performs the initialize handshake over t and lists the
// server's tools. t is closed if the handshake fails.
func NewClient(ctx context.Context, name string, t Transport) (*Client, error) {
	c := &Client{name: name, transport: t}

	err := t.Call(ctx, "initialize", initializeParams{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    map[string]any{},
		ClientInfo:      clientInfo{Name: "kiro", Version: ClientVersion},
	}, &c.info)
	if err == nil {
		err = t.Notify(ctx, "notifications/initialized", nil)
	}
	if err == nil {
		err = c.refreshTools(ctx)
	}
	if err != nil {
		_ = t.Close()
		return nil, fmt.Errorf("mcp: connect %s: %w", name, err)
	}
	return c, nil
}

func (c *Client) refreshTools(ctx context.Context) error {
	var res struct {
		Tools []ToolInfo `json:"tools"`
	}
	if err := c.transport.Call(ctx, "tools/list", map[string]any{}, &res); err != nil {
		return err
	}
	c.tools = res.Tools
	return nil
}

// Name returns the configured server name.
func (c *Client) Name() string { return c.name }

// Info returns what the server reported during initialize.
func (c *Client) Info() ServerInfo { return c.info }

// Tools returns the tools discovered at connect time.
func (c *Client) Tools() []ToolInfo { return c.tools }

// CallTool invokes a remote tool.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*CallResult, error) {
	if args == nil {
		args = map[string]any{}
	}
	var res CallResult
	if err := c.transport.Call(ctx, "tools/call", map[string]any{"name": name, "arguments": args}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Close disconnects from the server.
func (c *Client) Close() error { return c.transport.Close() }
