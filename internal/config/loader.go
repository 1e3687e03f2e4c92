package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigDir is the directory name under ~/.config
	ConfigDir = "kiro"
	// EnvPrefix prefixes every environment override, e.g. KIRO_MODEL_NAME.
	EnvPrefix = "KIRO"
)

// ConfigFiles are tried in order; the first one present wins.
var ConfigFiles = []string{"config.yaml", "config.yml", "config.json"}

// ParseError is returned when a config file cannot be parsed.
type ParseError struct {
	Path  string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse config %s: %v", e.Path, e.Cause)
}
func (e *ParseError) Unwrap() error { return e.Cause }

// FileSystem abstracts file operations for testability
type FileSystem interface {
	UserHomeDir() (string, error)
	ReadFile(path string) ([]byte, error)
}

// ConfigFileReader implements FileSystem using the real OS for config loading
type ConfigFileReader struct{}

func (ConfigFileReader) UserHomeDir() (string, error) {
	return os.UserHomeDir()
}

func (ConfigFileReader) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Loader handles configuration loading with injected dependencies
type Loader struct {
	fs FileSystem
}

// NewLoader creates a production Loader using the real filesystem
func NewLoader() *Loader {
	return &Loader{fs: ConfigFileReader{}}
}

// NewLoaderWithFS creates a Loader with a custom filesystem (for testing)
func NewLoaderWithFS(fs FileSystem) *Loader {
	return &Loader{fs: fs}
}

// Load reads configuration from ~/.config/kiro/config.{yaml,yml,json}
// and merges it with defaults and KIRO_* environment variables.
// Returns the default config if no dotfile exists.
// Returns error only for parse errors, permission issues, or validation failures.
func (l *Loader) Load() (*Config, error) {
	homeDir, err := l.fs.UserHomeDir()
	if err != nil {
		return l.load("")
	}

	for _, name := range ConfigFiles {
		path := filepath.Join(homeDir, ".config", ConfigDir, name)
		if _, err := l.fs.ReadFile(path); err == nil {
			return l.load(path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	return l.load("")
}

// LoadFile loads an explicit config file over the defaults.
func (l *Loader) LoadFile(path string) (*Config, error) {
	return l.load(path)
}

func (l *Loader) load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults go in as a config layer so partially specified sections merge
	// key by key instead of replacing the whole section.
	defaults, err := json.Marshal(DefaultConfig())
	if err != nil {
		return nil, err
	}
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, err
	}

	if path != "" {
		data, err := l.fs.ReadFile(path)
		if err != nil {
			return nil, err
		}
		v.SetConfigType(configType(path))
		if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
			return nil, &ParseError{Path: path, Cause: err}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, &ParseError{Path: path, Cause: err}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

// Load is a convenience function using the default loader
func Load() (*Config, error) {
	return NewLoader().Load()
}
