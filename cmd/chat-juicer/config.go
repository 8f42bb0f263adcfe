package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nickpeterson92/chat-juicer/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify chat-juicer configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/chat-juicer/config.yaml
Project-specific overrides can be placed in .chat-juicer.yaml

Use "chat-juicer config profiles" to list the available backend
profiles (built-in plus ~/.config/chat-juicer/profiles/*.yaml).`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 1 && args[0] == "profiles" {
			displayProfiles()
			return
		}

		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayProfiles prints all known backend profiles.
func displayProfiles() {
	profiles, err := config.LoadProfiles("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading profiles: %v\n", err)
		os.Exit(1)
	}
	for name, p := range profiles {
		fmt.Printf("%s: %s %s", name, p.Command, strings.Join(p.Args, " "))
		if p.Description != "" {
			fmt.Printf("  # %s", p.Description)
		}
		fmt.Println()
	}
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("backend.command: %s\n", cfg.Backend.Command)
	fmt.Printf("backend.args: %s\n", strings.Join(cfg.Backend.Args, " "))
	fmt.Printf("backend.dir: %s\n", cfg.Backend.Dir)
	fmt.Printf("backend.env: %s\n", strings.Join(cfg.Backend.Env, " "))
	fmt.Printf("backend.stop_timeout: %s\n", cfg.Backend.StopTimeout)
	fmt.Printf("tui.transcript_limit: %d\n", cfg.TUI.TranscriptLimit)
	fmt.Printf("history.enabled: %t\n", cfg.History.Enabled)
	fmt.Printf("history.path: %s\n", cfg.HistoryPath())
	fmt.Printf("profile: %s\n", cfg.Profile)
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "backend.command":
		return cfg.Backend.Command, nil
	case "backend.args":
		return strings.Join(cfg.Backend.Args, " "), nil
	case "backend.dir":
		return cfg.Backend.Dir, nil
	case "backend.env":
		return strings.Join(cfg.Backend.Env, " "), nil
	case "backend.stop_timeout":
		return cfg.Backend.StopTimeout.String(), nil
	case "tui.transcript_limit":
		return strconv.Itoa(cfg.TUI.TranscriptLimit), nil
	case "history.enabled":
		return strconv.FormatBool(cfg.History.Enabled), nil
	case "history.path":
		return cfg.HistoryPath(), nil
	case "profile":
		if cfg.Profile == "" {
			return "(none)", nil
		}
		return cfg.Profile, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "backend.command":
		cfg.Backend.Command = value
	case "backend.args":
		cfg.Backend.Args = strings.Fields(value)
	case "backend.dir":
		cfg.Backend.Dir = value
	case "backend.env":
		cfg.Backend.Env = strings.Fields(value)
	case "backend.stop_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for stop_timeout: %w", err)
		}
		cfg.Backend.StopTimeout = d
	case "tui.transcript_limit":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for transcript_limit: %w", err)
		}
		cfg.TUI.TranscriptLimit = n
	case "history.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for history.enabled: %w", err)
		}
		cfg.History.Enabled = b
	case "history.path":
		cfg.History.Path = value
	case "profile":
		cfg.Profile = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
