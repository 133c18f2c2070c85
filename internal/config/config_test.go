package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: "9090"
  base_url: "http://notes.local"
jwt:
  secret: "from-file"
storage:
  driver: local
  path: /tmp/notehub
catalog:
  language: en
ratelimit:
  auth_rps: 2.5
  auth_burst: 10
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_FileAndDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "from-file", cfg.JWT.Secret)
	assert.Equal(t, "1h", cfg.JWT.AccessTokenExpiration)
	assert.Equal(t, "en", cfg.Catalog.Language)
	assert.Equal(t, 2.5, cfg.RateLimit.AuthRPS)
	assert.Equal(t, 10, cfg.RateLimit.AuthBurst)
	assert.Equal(t, "notes", cfg.Storage.NotesBucket)
	assert.Equal(t, "http://notes.local/uploads", cfg.PublicStorageURL())
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("STORAGE_USE_SSL", "true")
	t.Setenv("DB_MAX_OPEN_CONNS", "3")

	cfg, err := LoadConfig(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, "7070", cfg.Server.Port)
	assert.True(t, cfg.Storage.UseSSL)
	assert.Equal(t, 3, cfg.Database.MaxOpenConns)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "pl", cfg.Catalog.Language)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing secret", "server:\n  port: \"1\"\n", "JWT secret is required"},
		{"unknown driver", "jwt:\n  secret: x\nstorage:\n  driver: ftp\n", "unknown storage driver"},
		{"minio without endpoint", "jwt:\n  secret: x\nstorage:\n  driver: minio\n", "endpoint is required"},
		{"bad ttl", "jwt:\n  secret: x\ncatalog:\n  cache_ttl: soon\n", "catalog cache TTL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadConfig_BadEnvValue(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "many")
	_, err := LoadConfig(writeConfig(t, sampleYAML))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_MAX_OPEN_CONNS")
}

func TestPublicStorageURL_Minio(t *testing.T) {
	cfg := &Config{Storage: StorageConfig{Driver: StorageDriverMinio, Endpoint: "s3.local:9000", UseSSL: true}}
	assert.Equal(t, "https://s3.local:9000", cfg.PublicStorageURL())

	cfg.Storage.PublicURL = "https://cdn.example.com/"
	assert.Equal(t, "https://cdn.example.com", cfg.PublicStorageURL())
}

func TestLoadConfig_ShippedFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	cfg, err := LoadConfig(filepath.Join("..", "..", "configs", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, StorageDriverLocal, cfg.Storage.Driver)
	assert.Equal(t, "1h", cfg.JWT.AccessTokenExpiration)
	assert.Equal(t, "migrations", cfg.Database.MigrationsPath)
}
