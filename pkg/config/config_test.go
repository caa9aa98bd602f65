package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/gridstore/internal/bytesize"
	"github.com/marmos91/gridstore/pkg/bucket"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, StoreTypeSQLite, cfg.Store.Type)
	assert.NotEmpty(t, cfg.Store.Path)
	assert.Equal(t, bucket.DefaultName, cfg.Bucket.Name)
	assert.Equal(t, bytesize.ByteSize(bucket.DefaultChunkSize), cfg.Bucket.ChunkSize)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 8080, cfg.API.Port)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: debug
  format: json
store:
  type: badger
  path: /var/lib/gridstore/badger
bucket:
  name: media
  chunk_size: 1Mi
api:
  port: 9000
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	// Level normalized to uppercase
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, StoreTypeBadger, cfg.Store.Type)
	assert.Equal(t, "/var/lib/gridstore/badger", cfg.Store.Path)
	assert.Equal(t, "media", cfg.Bucket.Name)
	assert.Equal(t, bytesize.MiB, cfg.Bucket.ChunkSize)
	assert.Equal(t, 9000, cfg.API.Port)
}

func TestLoadChunkSizeFormats(t *testing.T) {
	tests := []struct {
		raw  string
		want bytesize.ByteSize
	}{
		{"262144", 256 * bytesize.KiB},
		{`"256Ki"`, 256 * bytesize.KiB},
		{`"1Mi"`, bytesize.MiB},
		{`"64KB"`, 64 * bytesize.KB},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			path := writeConfigFile(t, `
store:
  type: memory
bucket:
  chunk_size: `+tt.raw+"\n")

			cfg, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Bucket.ChunkSize)
		})
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "bad log level",
			content: `
logging:
  level: VERBOSE
store:
  type: memory
`,
		},
		{
			name: "bad store type",
			content: `
store:
  type: cassandra
`,
		},
		{
			name: "postgres without dsn",
			content: `
store:
  type: postgres
`,
		},
		{
			name: "api port out of range",
			content: `
store:
  type: memory
api:
  port: 70000
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.content)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestValidateCrossFieldRules(t *testing.T) {
	cfg := GetDefaultConfig()
	require.NoError(t, Validate(cfg))

	cfg = GetDefaultConfig()
	cfg.Store.Type = StoreTypePostgres
	cfg.Store.DSN = ""
	assert.Error(t, Validate(cfg))

	cfg = GetDefaultConfig()
	cfg.Telemetry.Enabled = true
	cfg.Telemetry.Endpoint = ""
	assert.Error(t, Validate(cfg))

	cfg = GetDefaultConfig()
	cfg.Bucket.ChunkSize = 4 * bytesize.GiB
	assert.Error(t, Validate(cfg))
}

func TestSaveAndReloadConfig(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "DEBUG"
	cfg.Store = StoreConfig{Type: StoreTypeMemory}
	cfg.Bucket.Name = "attachments"
	cfg.Bucket.ChunkSize = 512 * bytesize.KiB

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, SaveConfig(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", loaded.Logging.Level)
	assert.Equal(t, StoreTypeMemory, loaded.Store.Type)
	assert.Equal(t, "attachments", loaded.Bucket.Name)
	assert.Equal(t, 512*bytesize.KiB, loaded.Bucket.ChunkSize)
}

func TestEnvOverride(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: info
store:
  type: memory
`)

	t.Setenv("GRIDSTORE_LOGGING_LEVEL", "ERROR")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ERROR", cfg.Logging.Level)
}

func TestGetDefaultConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")
	assert.Equal(t, "/tmp/xdg-test/gridstore/config.yaml", GetDefaultConfigPath())
}

func TestOpenStore(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		store, err := OpenStore(context.Background(), StoreConfig{Type: StoreTypeMemory})
		require.NoError(t, err)
		defer store.Close()
		assert.Equal(t, "memory", store.Type())
	})

	t.Run("sqlite", func(t *testing.T) {
		store, err := OpenStore(context.Background(), StoreConfig{
			Type: StoreTypeSQLite,
			Path: filepath.Join(t.TempDir(), "data", "gridstore.db"),
		})
		require.NoError(t, err)
		defer store.Close()
		assert.Equal(t, "sqlite", store.Type())
	})

	t.Run("badger", func(t *testing.T) {
		store, err := OpenStore(context.Background(), StoreConfig{
			Type: StoreTypeBadger,
			Path: filepath.Join(t.TempDir(), "badger"),
		})
		require.NoError(t, err)
		defer store.Close()
		assert.Equal(t, "badger", store.Type())
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := OpenStore(context.Background(), StoreConfig{Type: "cassandra"})
		assert.Error(t, err)
	})
}
