// Package config holds the terminal client's TOML configuration and XDG paths.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Play PlayConfig `toml:"play"`
}

// PlayConfig maps settings of the play command. Nil means "not set".
type PlayConfig struct {
	API        *string `toml:"api"`
	DB         *string `toml:"db"`
	Retries    *int    `toml:"retries"`
	RetryDelay *string `toml:"retry-delay"`
	LogLevel   *string `toml:"log-level"`
	Shuffle    *bool   `toml:"shuffle"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undec[0].String())
	}
	return cfg, nil
}
