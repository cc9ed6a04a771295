package config

import (
	"os"
	"path/filepath"
)

const appName = "connections"

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), appName, "config.toml")
}

// DefaultDBPath returns the default path of the checkpoint database.
func DefaultDBPath() string {
	return filepath.Join(XDGDataHome(), appName, "checkpoints.db")
}

// DefaultLogPath returns where the TUI writes its log while it owns the terminal.
func DefaultLogPath() string {
	return filepath.Join(XDGDataHome(), appName, "play.log")
}
