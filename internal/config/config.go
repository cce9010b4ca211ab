package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete AdForge configuration
type Config struct {
	Backend  BackendConfig  `mapstructure:"backend"`
	Realtime RealtimeConfig `mapstructure:"realtime"`
	Poll     PollConfig     `mapstructure:"poll"`
	TUI      TUIConfig      `mapstructure:"tui"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Paths    PathsConfig    `mapstructure:"paths"`
}

// BackendConfig controls how the client talks to the pipeline backend
type BackendConfig struct {
	// URL is the base URL of the pipeline backend API
	URL string `mapstructure:"url"`
	// TimeoutSeconds is the per-request HTTP timeout (default: 30)
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// RealtimeConfig controls the websocket channel behavior
type RealtimeConfig struct {
	// URL is the websocket base URL. If empty, it is derived from backend.url
	// by swapping the scheme (http -> ws, https -> wss).
	URL string `mapstructure:"url"`
	// ReconnectBudget is how many consecutive reconnect attempts are made
	// after the channel drops before giving up (default: 3)
	ReconnectBudget int `mapstructure:"reconnect_budget"`
	// DialTimeoutSeconds is the websocket handshake timeout (default: 10)
	DialTimeoutSeconds int `mapstructure:"dial_timeout_seconds"`
}

// PollConfig controls the fallback polling loop that runs while a stage
// is generating
type PollConfig struct {
	// IntervalSeconds is the delay between session refetches (default: 3)
	IntervalSeconds int `mapstructure:"interval_seconds"`
}

// TUIConfig controls the terminal UI behavior
type TUIConfig struct {
	// Theme is the color theme for the TUI (default: "default")
	// Options: "default", "monokai", "dracula", "nord"
	Theme string `mapstructure:"theme"`
	// MaxConversationLines limits how many chat lines are kept visible in the
	// feedback pane
	MaxConversationLines int `mapstructure:"max_conversation_lines"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether debug logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of backup log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
}

// PathsConfig controls where AdForge stores data
type PathsConfig struct {
	// StateDir is the directory where session snapshots and log files live.
	// If empty, defaults to $XDG_STATE_HOME/adforge or ~/.local/state/adforge.
	// Supports ~ for home directory expansion.
	StateDir string `mapstructure:"state_dir"`
}

// Timeout returns the backend request timeout as a time.Duration
func (c *BackendConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DialTimeout returns the websocket handshake timeout as a time.Duration
func (c *RealtimeConfig) DialTimeout() time.Duration {
	return time.Duration(c.DialTimeoutSeconds) * time.Second
}

// Interval returns the poll interval as a time.Duration
func (c *PollConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// ResolveURL returns the websocket base URL, deriving it from the backend
// URL when no explicit realtime URL is configured.
func (c *RealtimeConfig) ResolveURL(backendURL string) string {
	if c.URL != "" {
		return c.URL
	}
	switch {
	case strings.HasPrefix(backendURL, "https://"):
		return "wss://" + strings.TrimPrefix(backendURL, "https://")
	case strings.HasPrefix(backendURL, "http://"):
		return "ws://" + strings.TrimPrefix(backendURL, "http://")
	}
	return backendURL
}

// ResolveStateDir returns the resolved state directory path.
// If StateDir is empty, it returns the XDG state directory for adforge.
// If StateDir starts with ~, it expands to the user's home directory.
func (p *PathsConfig) ResolveStateDir() string {
	if p.StateDir == "" {
		return defaultStateDir()
	}

	path := p.StateDir
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}
	return path
}

func defaultStateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "adforge")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".adforge"
	}
	return filepath.Join(home, ".local", "state", "adforge")
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:            "http://localhost:8000",
			TimeoutSeconds: 30,
		},
		Realtime: RealtimeConfig{
			URL:                "", // Empty means derive from backend.url
			ReconnectBudget:    3,
			DialTimeoutSeconds: 10,
		},
		Poll: PollConfig{
			IntervalSeconds: 3,
		},
		TUI: TUIConfig{
			Theme:                "default",
			MaxConversationLines: 200,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Paths: PathsConfig{
			StateDir: "", // Empty means use the XDG state directory
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Backend defaults
	viper.SetDefault("backend.url", defaults.Backend.URL)
	viper.SetDefault("backend.timeout_seconds", defaults.Backend.TimeoutSeconds)

	// Realtime defaults
	viper.SetDefault("realtime.url", defaults.Realtime.URL)
	viper.SetDefault("realtime.reconnect_budget", defaults.Realtime.ReconnectBudget)
	viper.SetDefault("realtime.dial_timeout_seconds", defaults.Realtime.DialTimeoutSeconds)

	// Poll defaults
	viper.SetDefault("poll.interval_seconds", defaults.Poll.IntervalSeconds)

	// TUI defaults
	viper.SetDefault("tui.theme", defaults.TUI.Theme)
	viper.SetDefault("tui.max_conversation_lines", defaults.TUI.MaxConversationLines)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)

	// Paths defaults
	viper.SetDefault("paths.state_dir", defaults.Paths.StateDir)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "adforge")
	}
	// Fall back to ~/.config/adforge
	home, err := os.UserHomeDir()
	if err != nil {
		return ".adforge"
	}
	return filepath.Join(home, ".config", "adforge")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
