package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// ErrInvalid is returned for configuration values the terminal cannot use.
var ErrInvalid = errors.New("invalid configuration")

// ShellConfig holds shell-specific settings
type ShellConfig struct {
	// Path to shell binary (empty = system default)
	Path string `toml:"path"`
	// Login starts the shell as a login shell
	Login bool `toml:"login"`
	// SourceRC whether to source user's rc files (.bashrc, .zshrc, etc.)
	SourceRC bool `toml:"source_rc"`
	// AdditionalEnv extra environment variables
	AdditionalEnv map[string]string `toml:"env"`
}

// TerminalConfig sizes the per-session buffers.
type TerminalConfig struct {
	Scrollback        int    `toml:"scrollback"`
	ReadBuffer        int    `toml:"read_buffer"`
	LogMaxEntries     int    `toml:"log_max_entries"`
	SelectionMaxBytes int    `toml:"selection_max_bytes"`
	Theme             string `toml:"theme"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level       string   `toml:"level"` // "debug", "info", "warn", "error"
	Development bool     `toml:"development"`
	OutputPaths []string `toml:"output_paths"`
}

// Config holds the terminal configuration
type Config struct {
	Shell    ShellConfig    `toml:"shell"`
	Terminal TerminalConfig `toml:"terminal"`
	Logging  LoggingConfig  `toml:"logging"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Shell: ShellConfig{
			Path:          "",
			SourceRC:      true,
			AdditionalEnv: map[string]string{},
		},
		Terminal: TerminalConfig{
			Scrollback:        10000,
			ReadBuffer:        4096,
			LogMaxEntries:     2000,
			SelectionMaxBytes: 2 * 1024 * 1024,
			Theme:             "raven-blue",
		},
		Logging: LoggingConfig{
			Level:       "info",
			OutputPaths: []string{"stderr"},
		},
	}
}

// GetConfigDir returns the config directory path
func GetConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".config", "ravencore")
	}
	return filepath.Join(dir, "ravencore")
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.toml")
}

// Load reads the configuration at path, or at GetConfigPath when path is
// empty. A missing file yields the defaults. Nothing is written back.
func Load(path string) (*Config, error) {
	if path == "" {
		path = GetConfigPath()
	}

	cfg := DefaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: unknown keys in %s: %s", ErrInvalid, path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects sizes a session cannot be built with.
func (c *Config) Validate() error {
	t := c.Terminal
	switch {
	case t.Scrollback < 0:
		return fmt.Errorf("%w: terminal.scrollback must not be negative", ErrInvalid)
	case t.ReadBuffer <= 0:
		return fmt.Errorf("%w: terminal.read_buffer must be positive", ErrInvalid)
	case t.LogMaxEntries <= 0:
		return fmt.Errorf("%w: terminal.log_max_entries must be positive", ErrInvalid)
	case t.SelectionMaxBytes <= 0:
		return fmt.Errorf("%w: terminal.selection_max_bytes must be positive", ErrInvalid)
	}
	if c.Shell.Path != "" && !filepath.IsAbs(c.Shell.Path) {
		return fmt.Errorf("%w: shell.path %q is not absolute", ErrInvalid, c.Shell.Path)
	}
	return nil
}

// GetAvailableShells returns a list of available shells on the system
func GetAvailableShells() []string {
	shells := []string{}
	possibleShells := []string{
		"/bin/bash",
		"/usr/bin/bash",
		"/bin/zsh",
		"/usr/bin/zsh",
		"/bin/fish",
		"/usr/bin/fish",
		"/bin/sh",
		"/usr/bin/sh",
		"/bin/dash",
		"/usr/bin/dash",
	}

	seen := make(map[string]bool)
	for _, shell := range possibleShells {
		if _, err := os.Stat(shell); err == nil {
			base := filepath.Base(shell)
			if !seen[base] {
				seen[base] = true
				shells = append(shells, shell)
			}
		}
	}
	return shells
}
