package config

//
// file.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gitlab.com/kabes/go-relay/internal/aerr"
)

// FileConf is optional configuration file; values are defaults for command line flags.
type FileConf struct {
	ServerURL string `toml:"server_url"`
	Database  string `toml:"database"`
	Timeout   string `toml:"timeout"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	Control struct {
		Address    string `toml:"address"`
		AccessList string `toml:"access_list"`
		Metrics    bool   `toml:"metrics"`
	} `toml:"control"`

	Player struct {
		Rate float64 `toml:"rate"`
	} `toml:"player"`
}

// DefaultConfigPath returns path to default configuration file location.
func DefaultConfigPath() string {
	if base, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "go-relay", "config.toml")
	}

	return "~/.config/go-relay/config.toml"
}

// DefaultDatabasePath returns path to default local database.
func DefaultDatabasePath() string {
	if base, ok := os.LookupEnv("XDG_DATA_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "go-relay", "relay.sqlite")
	}

	return "~/.local/share/go-relay/relay.sqlite"
}

// LoadFile parse configuration file. Missing file is not an error when
// `optional` is set; empty configuration is returned.
func LoadFile(path string, optional bool) (*FileConf, error) {
	cfg := &FileConf{}

	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, aerr.ApplyFor(aerr.ErrInvalidConf, err, "invalid config path")
	}

	content, err := os.ReadFile(expanded)
	if errors.Is(err, fs.ErrNotExist) && optional {
		return cfg, nil
	} else if err != nil {
		return nil, aerr.ApplyFor(aerr.ErrInvalidConf, err, "can't read config file").WithMeta("path", expanded)
	}

	if err := toml.Unmarshal(content, cfg); err != nil {
		return nil, aerr.ApplyFor(aerr.ErrInvalidConf, err, "can't parse config file: "+err.Error()).
			WithMeta("path", expanded)
	}

	return cfg, nil
}

// ExpandPath expand ~ to user home and make path absolute.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}

	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", aerr.Wrapf(err, "resolve home directory failed")
		}

		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}

	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", aerr.Wrapf(err, "resolve absolute path for %q failed", pathValue)
	}

	return absolute, nil
}
