package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, SourcePostgres, cfg.Mar.Source)
	assert.Equal(t, time.UTC, cfg.Mar.Location)
	assert.Equal(t, "mar", cfg.Mar.RedisKeyPrefix)
	assert.False(t, cfg.JWT.Enabled)
	assert.Equal(t, 10*time.Second, cfg.Directory.Timeout)
}

func TestLoadFromEnvironment(t *testing.T) {
	chdirTemp(t)
	t.Setenv("ENV", EnvProduction)
	t.Setenv("MAR_SOURCE", "HTTP")
	t.Setenv("MAR_TIMEZONE", "Asia/Jakarta")
	t.Setenv("WARD_DIRECTORY_URL", "http://directory.local/")
	t.Setenv("WARD_DIRECTORY_TIMEOUT", "bogus")
	t.Setenv("ALLOWED_ORIGINS", "https://ward.example, ,https://ops.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, SourceHTTP, cfg.Mar.Source)
	assert.Equal(t, "Asia/Jakarta", cfg.Mar.Location.String())
	assert.Equal(t, "http://directory.local", cfg.Directory.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Directory.Timeout)
	assert.True(t, cfg.JWT.Enabled)
	assert.Equal(t, []string{"https://ward.example", "https://ops.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoadExplicitAuthToggle(t *testing.T) {
	chdirTemp(t)
	t.Setenv("ENV", EnvProduction)
	t.Setenv("ENABLE_AUTH", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.JWT.Enabled)
}

func TestLoadRejectsInvalidMarSettings(t *testing.T) {
	chdirTemp(t)

	t.Setenv("MAR_SOURCE", "mongo")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("MAR_SOURCE", SourceHTTP)
	_, err = Load()
	assert.Error(t, err, "http source without directory URL")

	t.Setenv("MAR_SOURCE", SourceRedis)
	t.Setenv("MAR_TIMEZONE", "Mars/Olympus")
	_, err = Load()
	assert.Error(t, err)
}
