package config

import (
	"fmt"
	"strings"
)

// Validate checks config values for correctness.
// Returns an error listing every invalid value.
func (c *Config) Validate() error {
	var errs []string

	// Model validation
	switch c.Model.Backend {
	case BackendOllama, BackendGemini:
	default:
		errs = append(errs, fmt.Sprintf("model.backend must be one of %q, %q", BackendOllama, BackendGemini))
	}
	if c.Model.Backend == BackendOllama && c.Model.BaseURL == "" {
		errs = append(errs, "model.base_url is required for the ollama backend")
	}
	if c.Model.Name == "" {
		errs = append(errs, "model.name is required")
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 1 {
		errs = append(errs, "model.temperature must be within [0, 1]")
	}
	if c.Model.MaxOutputTokens < 1 {
		errs = append(errs, "model.max_output_tokens must be >= 1")
	}
	if c.Model.TimeoutSeconds < 1 {
		errs = append(errs, "model.timeout_seconds must be >= 1")
	}

	// Agent validation
	if c.Agent.MaxIterations < 1 {
		errs = append(errs, "agent.max_iterations must be >= 1")
	}
	if c.Agent.IdleTimeout < 0 {
		errs = append(errs, "agent.idle_timeout must be >= 0")
	}
	if c.Approval.ExpirySeconds < 0 {
		errs = append(errs, "approval.expiry_seconds must be >= 0")
	}

	// Tools validation
	if c.Tools.MaxFileSize < 1 {
		errs = append(errs, "tools.max_file_size must be >= 1")
	}
	if c.Tools.DefaultListDirectoryLimit < 1 {
		errs = append(errs, "tools.default_list_directory_limit must be >= 1")
	}
	if c.Tools.MaxListDirectoryResults < 1 {
		errs = append(errs, "tools.max_list_directory_results must be >= 1")
	}
	if c.Tools.DefaultListDirectoryLimit > c.Tools.MaxListDirectoryResults {
		errs = append(errs, "tools.default_list_directory_limit must be <= tools.max_list_directory_results")
	}
	if c.Tools.DefaultMaxCommandOutputSize < 1 {
		errs = append(errs, "tools.default_max_command_output_size must be >= 1")
	}
	if c.Tools.DefaultShellTimeout < 1 {
		errs = append(errs, "tools.default_shell_timeout must be >= 1")
	}
	if c.Tools.ShellGracefulShutdownMs < 1 {
		errs = append(errs, "tools.shell_graceful_shutdown_ms must be >= 1")
	}
	if strings.TrimSpace(c.Tools.CodeInterpreter) == "" {
		errs = append(errs, "tools.code_interpreter is required")
	}
	if c.Tools.WebTimeout < 1 {
		errs = append(errs, "tools.web_timeout must be >= 1")
	}
	if c.Tools.FetchMaxLength < 1 {
		errs = append(errs, "tools.fetch_max_length must be >= 1")
	}
	if c.Tools.SearchMaxResults < 1 {
		errs = append(errs, "tools.search_max_results must be >= 1")
	}
	if c.Tools.PDFMaxOutput < 1 {
		errs = append(errs, "tools.pdf_max_output must be >= 1")
	}

	// MCP validation
	if c.MCP.ConnectTimeout < 1 {
		errs = append(errs, "mcp.connect_timeout must be >= 1")
	}
	seen := make(map[string]bool)
	for i, s := range c.MCP.Servers {
		prefix := fmt.Sprintf("mcp.servers[%d]", i)
		if s.Name == "" {
			errs = append(errs, prefix+".name is required")
		} else if strings.ContainsAny(s.Name, "/ ") {
			errs = append(errs, prefix+".name must not contain '/' or spaces")
		} else if seen[s.Name] {
			errs = append(errs, fmt.Sprintf("%s.name %q is duplicated", prefix, s.Name))
		}
		seen[s.Name] = true

		switch s.Transport {
		case TransportStdio:
			if s.Command == "" {
				errs = append(errs, prefix+".command is required for stdio transport")
			}
		case TransportHTTP, TransportWebsocket:
			if s.URL == "" {
				errs = append(errs, prefix+".url is required for "+s.Transport+" transport")
			}
		default:
			errs = append(errs, fmt.Sprintf("%s.transport must be one of %s, %s, %s", prefix, TransportStdio, TransportHTTP, TransportWebsocket))
		}
	}

	// Log validation
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, "log.level must be one of debug, info, warn, error")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, "log.format must be console or json")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
