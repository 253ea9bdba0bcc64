package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigPath(t *testing.T) {
	t.Setenv("NODAL_CONFIG_PATH", "/tmp/custom.toml")
	path, err := configPath()
	require.NoError(t, err)
	require.Equal(t, "/tmp/custom.toml", path)

	t.Setenv("NODAL_CONFIG_PATH", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	path, err = configPath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/xdg", "nodal", "config.toml"), path)
}

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodal", "config.toml")

	cfg, err := readConfig(path)
	require.NoError(t, err)
	require.Equal(t, defaultServer, cfg.Server)
	require.Empty(t, cfg.Token)

	cfg.Token = "tok"
	cfg.Username = "alice"
	require.NoError(t, writeConfig(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := readConfig(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
}

func TestDecodeConfig(t *testing.T) {
	cfg, err := decodeConfig(strings.NewReader(`token = "abc"`))
	require.NoError(t, err)
	require.Equal(t, defaultServer, cfg.Server)
	require.Equal(t, "abc", cfg.Token)

	var buf bytes.Buffer
	require.NoError(t, encodeConfig(&buf, &cliConfig{Server: "https://nodal.example"}))
	require.Equal(t, "server = \"https://nodal.example\"\n", buf.String())

	_, err = decodeConfig(strings.NewReader(`server = `))
	require.Error(t, err)
}
