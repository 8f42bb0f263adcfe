// Package config handles configuration loading and management for
// chat-juicer. It supports XDG config paths, project-level overrides, and
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for chat-juicer.
type Config struct {
	Backend BackendConfig `mapstructure:"backend"`
	TUI     TUIConfig     `mapstructure:"tui"`
	History HistoryConfig `mapstructure:"history"`
	// Profile selects a named backend launch profile; empty means the
	// backend section above is used directly.
	Profile string `mapstructure:"profile"`
}

// BackendConfig describes how the assistant subprocess is launched.
type BackendConfig struct {
	// Command is the backend executable (e.g., "python3").
	Command string `mapstructure:"command"`
	// Args are passed to the command.
	Args []string `mapstructure:"args"`
	// Dir is the backend working directory; empty inherits ours.
	Dir string `mapstructure:"dir"`
	// Env holds extra KEY=VALUE pairs for the backend environment.
	Env []string `mapstructure:"env"`
	// StopTimeout bounds the wait for exit confirmation on stop/restart.
	StopTimeout time.Duration `mapstructure:"stop_timeout"`
}

// TUIConfig holds chat display settings.
type TUIConfig struct {
	// TranscriptLimit caps the number of transcript lines kept in memory.
	TranscriptLimit int `mapstructure:"transcript_limit"`
}

// HistoryConfig holds transcript persistence settings.
type HistoryConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Path overrides the default database location.
	Path string `mapstructure:"path"`
}

// Load loads configuration from XDG paths, project overrides, and
// environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (CHAT_JUICER_*)
// 2. Project config (.chat-juicer.yaml in current directory or parent)
// 3. User config (~/.config/chat-juicer/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	// Load project config if present
	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("CHAT_JUICER")

	v.BindEnv("backend.command", "CHAT_JUICER_BACKEND_COMMAND")
	v.BindEnv("profile", "CHAT_JUICER_PROFILE")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("backend.command", cfg.Backend.Command)
	v.Set("backend.args", cfg.Backend.Args)
	v.Set("backend.dir", cfg.Backend.Dir)
	v.Set("backend.env", cfg.Backend.Env)
	v.Set("backend.stop_timeout", cfg.Backend.StopTimeout.String())
	v.Set("tui.transcript_limit", cfg.TUI.TranscriptLimit)
	v.Set("history.enabled", cfg.History.Enabled)
	v.Set("history.path", cfg.History.Path)
	v.Set("profile", cfg.Profile)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// DataDir returns the XDG data directory for chat-juicer, used for the
// history database and control-signal files.
func DataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "chat-juicer")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".chat-juicer")
	}
	return filepath.Join(home, ".local", "share", "chat-juicer")
}

// HistoryPath returns the transcript database path for cfg.
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return filepath.Join(DataDir(), "history.db")
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	// Backend defaults match the canonical Python assistant layout.
	v.SetDefault("backend.command", "python3")
	v.SetDefault("backend.args", []string{"-u", "src/main.py"})
	v.SetDefault("backend.dir", "")
	v.SetDefault("backend.env", []string{})
	v.SetDefault("backend.stop_timeout", "5s")

	v.SetDefault("tui.transcript_limit", 500)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "")

	v.SetDefault("profile", "")
}

// getUserConfigDir returns the XDG config directory for chat-juicer.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "chat-juicer")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "chat-juicer")
	}
	return filepath.Join(home, ".config", "chat-juicer")
}

// findProjectConfig searches for .chat-juicer.yaml in the current directory
// and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".chat-juicer.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}
