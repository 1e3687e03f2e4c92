package config

// Config holds all application configuration values.
// Defaults are set in DefaultConfig() and can be overridden via dotfile or
// KIRO_* environment variables.
// NOTE: Values in config files override defaults, including explicit zero values.
// Missing keys are left at their default values.
type Config struct {
	Model    ModelConfig    `json:"model" mapstructure:"model"`
	Agent    AgentConfig    `json:"agent" mapstructure:"agent"`
	Approval ApprovalConfig `json:"approval" mapstructure:"approval"`
	Tools    ToolsConfig    `json:"tools" mapstructure:"tools"`
	MCP      MCPConfig      `json:"mcp" mapstructure:"mcp"`
	Server   ServerConfig   `json:"server" mapstructure:"server"`
	Log      LogConfig      `json:"log" mapstructure:"log"`
	Store    StoreConfig    `json:"store" mapstructure:"store"`
}

// Backend names accepted in model.backend.
const (
	BackendOllama = "ollama"
	BackendGemini = "gemini"
)

type ModelConfig struct {
	Backend         string  `json:"backend" mapstructure:"backend"`                     // Default: "ollama"
	BaseURL         string  `json:"base_url" mapstructure:"base_url"`                   // Default: http://localhost:11434
	Name            string  `json:"name" mapstructure:"name"`                           // Default: "llama3.2"
	APIKey          string  `json:"api_key,omitempty" mapstructure:"api_key"`           // Gemini only
	Temperature     float64 `json:"temperature" mapstructure:"temperature"`             // Default: 0.7
	MaxOutputTokens int     `json:"max_output_tokens" mapstructure:"max_output_tokens"` // Default: 2048
	TimeoutSeconds  int     `json:"timeout_seconds" mapstructure:"timeout_seconds"`     // Default: 120
}

type AgentConfig struct {
	MaxIterations int    `json:"max_iterations" mapstructure:"max_iterations"` // Default: 10
	SystemPrompt  string `json:"system_prompt" mapstructure:"system_prompt"`   // Prepended to the generated tool prompt
	WorkspaceRoot string `json:"workspace_root" mapstructure:"workspace_root"` // Default: current directory
	IdleTimeout   int    `json:"idle_timeout" mapstructure:"idle_timeout"`     // Seconds; 0 disables idle close
}

type ApprovalConfig struct {
	// ExpirySeconds bounds how long a change may stay pending. 0 means never.
	ExpirySeconds int `json:"expiry_seconds" mapstructure:"expiry_seconds"`
}

type ToolsConfig struct {
	// File Operations
	MaxFileSize int64 `json:"max_file_size" mapstructure:"max_file_size"` // Default: 20MB

	// Directory Listing
	DefaultListDirectoryLimit int `json:"default_list_directory_limit" mapstructure:"default_list_directory_limit"` // Default: 1000
	MaxListDirectoryResults   int `json:"max_list_directory_results" mapstructure:"max_list_directory_results"`     // Default: 50000

	// Command Execution
	DefaultMaxCommandOutputSize int64    `json:"default_max_command_output_size" mapstructure:"default_max_command_output_size"` // Default: 10MB
	DefaultShellTimeout         int      `json:"default_shell_timeout" mapstructure:"default_shell_timeout"`                     // Default: 30 seconds
	ShellGracefulShutdownMs     int      `json:"shell_graceful_shutdown_ms" mapstructure:"shell_graceful_shutdown_ms"`           // Default: 2000
	ShellDeny                   []string `json:"shell_deny" mapstructure:"shell_deny"`
	CodeInterpreter             string   `json:"code_interpreter" mapstructure:"code_interpreter"` // Default: python3

	// Web
	WebTimeout       int    `json:"web_timeout" mapstructure:"web_timeout"`               // Default: 15 seconds
	FetchMaxLength   int    `json:"fetch_max_length" mapstructure:"fetch_max_length"`     // Default: 5000
	SearchMaxResults int    `json:"search_max_results" mapstructure:"search_max_results"` // Default: 10
	UserAgent        string `json:"user_agent" mapstructure:"user_agent"`

	// PDF
	PDFMaxOutput int `json:"pdf_max_output" mapstructure:"pdf_max_output"` // Default: 10000
}

type MCPConfig struct {
	ConnectTimeout int               `json:"connect_timeout" mapstructure:"connect_timeout"` // Default: 30 seconds
	Servers        []MCPServerConfig `json:"servers" mapstructure:"servers"`
}

// MCP transports.
const (
	TransportStdio     = "stdio"
	TransportHTTP      = "http"
	TransportWebsocket = "websocket"
)

type MCPServerConfig struct {
	Name            string            `json:"name" mapstructure:"name"`
	Transport       string            `json:"transport" mapstructure:"transport"`
	Command         string            `json:"command,omitempty" mapstructure:"command"`
	Args            []string          `json:"args,omitempty" mapstructure:"args"`
	Env             map[string]string `json:"env,omitempty" mapstructure:"env"`
	URL             string            `json:"url,omitempty" mapstructure:"url"`
	Enabled         bool              `json:"enabled" mapstructure:"enabled"`
	RequireApproval bool              `json:"require_approval" mapstructure:"require_approval"`
}

type ServerConfig struct {
	Addr string `json:"addr" mapstructure:"addr"` // Default: 127.0.0.1:8765
}

type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`   // debug|info|warn|error
	Format string `json:"format" mapstructure:"format"` // console|json
	File   string `json:"file" mapstructure:"file"`     // empty: stderr
}

type StoreConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"` // empty: ~/.local/share/kiro/history.db
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Backend:         BackendOllama,
			BaseURL:         "http://localhost:11434",
			Name:            "llama3.2",
			Temperature:     0.7,
			MaxOutputTokens: 2048,
			TimeoutSeconds:  120,
		},
		Agent: AgentConfig{
			MaxIterations: 10,
		},
		Tools: ToolsConfig{
			MaxFileSize:                 20 * 1024 * 1024,
			DefaultListDirectoryLimit:   1000,
			MaxListDirectoryResults:     50000,
			DefaultMaxCommandOutputSize: 10 * 1024 * 1024,
			DefaultShellTimeout:         30,
			ShellGracefulShutdownMs:     2000,
			CodeInterpreter:             "python3",
			WebTimeout:                  15,
			FetchMaxLength:              5000,
			SearchMaxResults:            10,
			UserAgent:                   "Mozilla/5.0 (X11; Linux x86_64) kiro",
			PDFMaxOutput:                10000,
		},
		MCP: MCPConfig{
			ConnectTimeout: 30,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8765",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Store: StoreConfig{
			Enabled: true,
		},
	}
}
