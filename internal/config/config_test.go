package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("AUTH_ALLOWED_DOMAIN", "")
	t.Setenv("APP_NAME", "")
	t.Setenv("POSTGRES_APPLICATION_NAME", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, "presidencyuniversity.in", cfg.Auth.AllowedDomain)
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, "inventory-console", cfg.Postgres.ApplicationName)
	assert.Equal(t, int32(30), cfg.Postgres.HealthCheckSec)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("AUTH_ALLOWED_DOMAIN", "Example.EDU")
	t.Setenv("AUTH_SESSION_TTL_MINUTES", "15")
	t.Setenv("INVENTORY_FETCH_TIMEOUT_SECONDS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
	assert.Equal(t, "example.edu", cfg.Auth.AllowedDomain)
	assert.Equal(t, 15*time.Minute, cfg.Auth.SessionTTL())
	assert.Equal(t, 10*time.Second, cfg.Inventory.FetchTimeout())
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "db-one")

	_, err := Load()
	require.Error(t, err)
}

func TestLocationFallsBackToUTC(t *testing.T) {
	app := AppConfig{TimeZone: "Nowhere/Special"}
	assert.Equal(t, time.UTC, app.Location())
}
