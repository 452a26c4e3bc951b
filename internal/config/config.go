// Package config resolves the external tools abiscope depends on.
//
// Resolution order for each tool: environment variable, then the
// optional TOML config file, then the built-in default. The config
// never checks that a tool exists; internal/abigail reports a missing
// executable when it is actually needed.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const (
	// EnvAbidw overrides the ABI extraction tool.
	EnvAbidw = "ABISCOPE_ABIDW"

	// EnvAbidiff overrides the ABI comparison tool.
	EnvAbidiff = "ABISCOPE_ABIDIFF"

	// EnvPreprocessor overrides the C preprocessor used for header parsing.
	// The tool is invoked as "<preprocessor> -E <header>".
	EnvPreprocessor = "ABISCOPE_CPP"

	// EnvConfigFile overrides the config file location.
	EnvConfigFile = "ABISCOPE_CONFIG"

	// DefaultAbidw is the default ABI extraction tool name.
	DefaultAbidw = "abidw"

	// DefaultAbidiff is the default ABI comparison tool name.
	DefaultAbidiff = "abidiff"

	// DefaultPreprocessor is the default C preprocessor.
	DefaultPreprocessor = "gcc"
)

// Config holds resolved tool names or paths.
type Config struct {
	// Abidw is the ABI extraction tool (name or absolute path).
	Abidw string

	// Abidiff is the ABI comparison tool (name or absolute path).
	Abidiff string

	// Preprocessor is the C preprocessor run with -E.
	Preprocessor string
}

// fileConfig mirrors the optional TOML config file.
type fileConfig struct {
	Tools toolsSection `toml:"tools"`
}

type toolsSection struct {
	Abidw        string `toml:"abidw"`
	Abidiff      string `toml:"abidiff"`
	Preprocessor string `toml:"preprocessor"`
}

// DefaultConfig builds a Config from the environment and, if present,
// the config file. A missing config file is not an error; a malformed
// one is.
func DefaultConfig() (*Config, error) {
	cfg := &Config{
		Abidw:        DefaultAbidw,
		Abidiff:      DefaultAbidiff,
		Preprocessor: DefaultPreprocessor,
	}

	path := configFilePath()
	if path != "" {
		var fc fileConfig
		if _, err := toml.DecodeFile(path, &fc); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		} else {
			if fc.Tools.Abidw != "" {
				cfg.Abidw = fc.Tools.Abidw
			}
			if fc.Tools.Abidiff != "" {
				cfg.Abidiff = fc.Tools.Abidiff
			}
			if fc.Tools.Preprocessor != "" {
				cfg.Preprocessor = fc.Tools.Preprocessor
			}
		}
	}

	// Environment wins over the file.
	if v := os.Getenv(EnvAbidw); v != "" {
		cfg.Abidw = v
	}
	if v := os.Getenv(EnvAbidiff); v != "" {
		cfg.Abidiff = v
	}
	if v := os.Getenv(EnvPreprocessor); v != "" {
		cfg.Preprocessor = v
	}

	return cfg, nil
}

// configFilePath returns the config file location: ABISCOPE_CONFIG if
// set, otherwise ~/.config/abiscope/config.toml. Returns "" when no
// home directory can be determined.
func configFilePath() string {
	if v := os.Getenv(EnvConfigFile); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "abiscope", "config.toml")
}
