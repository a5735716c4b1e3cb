package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// writeConfigFile marshals the fixture to YAML in a temp dir and returns the
// file path.
func writeConfigFile(t *testing.T, fixture map[string]any) string {
	t.Helper()

	data, err := yaml.Marshal(fixture)
	require.NoError(t, err, "Failed to marshal config fixture")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func minimalFixture() map[string]any {
	return map[string]any{
		"gateway": map[string]any{
			"username": "zotero",
			"password": "secret",
		},
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeConfigFile(t, minimalFixture())

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "/zotero/", cfg.Gateway.Prefix)
	assert.Equal(t, "zotdav", cfg.Gateway.Realm)
	assert.Equal(t, "memory", cfg.Store.Type)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9090, cfg.Metrics.Port)
}

func TestLoad_ExplicitValuesPreserved(t *testing.T) {
	fixture := minimalFixture()
	fixture["logging"] = map[string]any{"level": "debug"}
	fixture["server"] = map[string]any{"port": 9999}
	fixture["gateway"] = map[string]any{
		"prefix":   "/dav/",
		"username": "u",
		"password": "p",
		"realm":    "custom",
	}
	fixture["store"] = map[string]any{
		"type":   "badger",
		"badger": map[string]any{"path": "/var/lib/zotdav", "compression": true},
	}

	path := writeConfigFile(t, fixture)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level, "level is normalized to uppercase")
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "/dav/", cfg.Gateway.Prefix)
	assert.Equal(t, "custom", cfg.Gateway.Realm)
	assert.Equal(t, "badger", cfg.Store.Type)
	assert.Equal(t, "/var/lib/zotdav", cfg.Store.Badger["path"])
	assert.Equal(t, true, cfg.Store.Badger["compression"])
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	fixture := minimalFixture()
	fixture["logging"] = map[string]any{"level": "INFO"}
	path := writeConfigFile(t, fixture)

	t.Setenv("ZOTDAV_LOGGING_LEVEL", "ERROR")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ERROR", cfg.Logging.Level)
}

func TestLoad_MissingCredentialsRejected(t *testing.T) {
	path := writeConfigFile(t, map[string]any{
		"gateway": map[string]any{"username": "zotero"},
	})

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}

func TestLoad_MalformedFileRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml:::"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}
