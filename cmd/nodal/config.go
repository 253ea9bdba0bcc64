package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const defaultServer = "http://localhost:8080"

// cliConfig is the on-disk state of the command-line client.
type cliConfig struct {
	Server   string `toml:"server"`
	Token    string `toml:"token,omitempty"`
	Username string `toml:"username,omitempty"`
}

// configPath checks NODAL_CONFIG_PATH, then $XDG_CONFIG_HOME/nodal/config.toml,
// then ~/.config/nodal/config.toml.
func configPath() (string, error) {
	if path := os.Getenv("NODAL_CONFIG_PATH"); path != "" {
		return path, nil
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "nodal", "config.toml"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "nodal", "config.toml"), nil
}

func decodeConfig(r io.Reader) (*cliConfig, error) {
	var cfg cliConfig
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Server == "" {
		cfg.Server = defaultServer
	}
	return &cfg, nil
}

func encodeConfig(w io.Writer, cfg *cliConfig) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// readConfig returns defaults when the file does not exist yet.
func readConfig(path string) (*cliConfig, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &cliConfig{Server: defaultServer}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	cfg, err := decodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeConfig stores cfg with owner-only permissions since it holds the token.
func writeConfig(path string, cfg *cliConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()
	return encodeConfig(f, cfg)
}
