package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds the settings of an eval session. Command-line flags
// override values loaded from a file.
type Config struct {
	LogLevel    string `toml:"log_level" yaml:"log_level"`
	LogFile     string `toml:"log_file" yaml:"log_file"`
	Dispatch    string `toml:"dispatch" yaml:"dispatch"`
	PrintTree   bool   `toml:"print_tree" yaml:"print_tree"`
	Prompt      string `toml:"prompt" yaml:"prompt"`
	HistoryFile string `toml:"history_file" yaml:"history_file"`
}

const (
	dispatchLine  = "line"
	dispatchShell = "shell"
)

// DefaultConfig returns the settings used when neither a file nor a flag
// sets a value.
func DefaultConfig() Config {
	return Config{
		LogLevel: "warn",
		Dispatch: dispatchShell,
		Prompt:   "lush> ",
	}
}

// LoadConfig reads a .toml, .yaml or .yml file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config format %q (want .toml, .yaml or .yml)", ext)
	}
	return cfg, cfg.Validate()
}

// Validate checks the enumerated settings.
func (c Config) Validate() error {
	switch c.Dispatch {
	case dispatchLine, dispatchShell:
	default:
		return fmt.Errorf("dispatch must be %q or %q, got %q", dispatchLine, dispatchShell, c.Dispatch)
	}
	return nil
}

// historyPath resolves the REPL history file, defaulting to
// ~/.lush_history.
func (c Config) historyPath() string {
	if c.HistoryFile != "" {
		return c.HistoryFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".lush_history")
}
