package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "agromate.yml")
	content := `
system:
  workdir: ` + dir + `
web:
  port: 8080
  token_ttl: 2
database:
  type: sqlite
  name: agromate.db
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))

	cfg, err := LoadConfig(file)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Web.Port)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "agromate.db", cfg.Database.Name)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL())
	// untouched sections keep their defaults
	assert.Equal(t, DefaultAppConfig.AI.GenAIModel, cfg.AI.GenAIModel)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AGROMATE_SYSTEM_WORKER_DIR", dir)
	t.Setenv("AGROMATE_WEB_PORT", "9000")
	t.Setenv("AGROMATE_WEB_COOKIE_SECURE", "true")
	t.Setenv("AGROMATE_DB_TYPE", "sqlite")
	t.Setenv("AGROMATE_REDIS_ADDR", "127.0.0.1:6379")

	cfg, err := LoadConfig(filepath.Join(dir, "missing.yml"))
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Web.Port)
	assert.True(t, cfg.Web.CookieSecure)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "127.0.0.1:6379", cfg.Redis.Addr)
	assert.DirExists(t, cfg.GetLogDir())
}

func TestDurationsFallback(t *testing.T) {
	cfg := &AppConfig{}
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL())
	assert.Equal(t, 30*time.Second, cfg.AITimeout())
}
