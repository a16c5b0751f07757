package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/teamboard/internal/config"
	"github.com/aretw0/teamboard/pkg/hierarchy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "teamboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "builtin", cfg.Taxonomy.Source)
	assert.Equal(t, 30*time.Minute, cfg.Redis.PickerTTL)
	assert.Equal(t, hierarchy.PolicyIntersect, cfg.Policy())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
filter_policy: sequential
http:
  port: 9090
store:
  backend: sqlite
  sqlite_path: /tmp/tb.db
redis:
  picker_ttl: 5m
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "*", cfg.HTTP.CORSOrigin, "untouched nested keys keep defaults")
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "/tmp/tb.db", cfg.Store.SQLitePath)
	assert.Equal(t, 5*time.Minute, cfg.Redis.PickerTTL)
	assert.Equal(t, hierarchy.PolicySequential, cfg.Policy())
}

func TestLoad_EnvWins(t *testing.T) {
	path := writeConfig(t, "http:\n  port: 9090\n")
	t.Setenv("TEAMBOARD_HTTP_PORT", "7070")
	t.Setenv("TEAMBOARD_STORE_BACKEND", "redis")
	t.Setenv("TEAMBOARD_REDIS_DB", "3")
	t.Setenv("TEAMBOARD_STORE_ENCRYPTION_FALLBACK_KEYS", "aa,bb")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.HTTP.Port)
	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, []string{"aa", "bb"}, cfg.Store.EncryptionFallbackKeys)
	assert.True(t, cfg.UsesRedis())
}

func TestLoad_MissingFiles(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err, "absent default file is fine")
	assert.Equal(t, 8080, cfg.HTTP.Port)

	_, err = config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err, "absent explicit file is not")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"backend", "store:\n  backend: postgres\n", "store.backend"},
		{"policy", "filter_policy: fuzzy\n", "fuzzy"},
		{"level", "log_level: loud\n", "loud"},
		{"port", "http:\n  port: 0\n", "http.port"},
		{"taxonomy path", "taxonomy:\n  source: file\n", "taxonomy.path"},
		{"watch", "taxonomy:\n  watch: true\n", "taxonomy.watch"},
		{"yaml", "http: [\n", "parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestEnvKeys(t *testing.T) {
	keys := config.EnvKeys()
	assert.Contains(t, keys, "TEAMBOARD_LOG_LEVEL")
	assert.Contains(t, keys, "TEAMBOARD_STORE_SQLITE_PATH")
	assert.Contains(t, keys, "TEAMBOARD_TAXONOMY_WATCH")
	assert.IsIncreasing(t, keys)
}
