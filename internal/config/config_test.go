package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_FromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "configs"), 0o755))
	settings := `
db:
  source: postgres://nodal@localhost/nodal
jwt:
  secret: from-file
host: nodal.example
storage:
  provider: local
  path: /tmp/objects
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "settings.yml"), []byte(settings), 0o644))
	t.Chdir(dir)
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.JWT.Secret)
	require.Equal(t, "postgres://nodal@localhost/nodal", cfg.DB.Source)
	require.Equal(t, "nodal.example", cfg.AppHost)
	require.Equal(t, "/tmp/objects", cfg.Storage.Path)
	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, 7*24*time.Hour, cfg.JWT.TTL)
	require.Equal(t, 2*time.Hour, cfg.Upload.TTL)
}

func TestValidate(t *testing.T) {
	base := Config{
		DB:      DBConfig{Source: "postgres://x"},
		JWT:     JWTConfig{Secret: "s"},
		Storage: StorageConfig{Provider: "local"},
	}
	require.NoError(t, base.Validate())

	noSecret := base
	noSecret.JWT.Secret = ""
	require.Error(t, noSecret.Validate())

	s3NoBucket := base
	s3NoBucket.Storage.Provider = "s3"
	require.Error(t, s3NoBucket.Validate())

	unknown := base
	unknown.Storage.Provider = "ftp"
	require.ErrorContains(t, unknown.Validate(), "unknown storage provider")
}
