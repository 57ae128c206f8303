package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.App.Env)
	assert.True(t, cfg.App.IsDev())
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, "medistore_cart", cfg.Storage.CartKey)
	assert.Equal(t, 500*time.Millisecond, cfg.Query.Debounce)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	require.NoError(t, os.Unsetenv(EnvAppEnv))

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_RedisDriverNeedsAddress(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvStorageDriver, StorageRedis)

	_, err := Load()
	require.Error(t, err)

	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
}

func TestLoad_SQLDriverDefaultsToSQLitePath(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvStorageDriver, StorageSQL)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DBDriverSQLite, cfg.DB.Driver)
	assert.Equal(t, "medistore.db", cfg.DB.DSN)
}

func TestLoad_SQLPostgresNeedsDSN(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvStorageDriver, StorageSQL)
	t.Setenv(EnvDBDriver, DBDriverPostgres)

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_RejectsUnknownStorageDriver(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvStorageDriver, "localstorage")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_CustomDebounce(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvQueryDebounce, "300ms")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 300*time.Millisecond, cfg.Query.Debounce)
}

func TestSessionURL(t *testing.T) {
	b := BackendConfig{BaseURL: "http://api.local/"}
	assert.Equal(t, "http://api.local/api/auth/get-session", b.SessionURL())

	b.AuthURL = "http://auth.local/api/auth/"
	assert.Equal(t, "http://auth.local/api/auth/get-session", b.SessionURL())
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "dev")
	t.Setenv(EnvBackendURL, "http://localhost:5000")
}
