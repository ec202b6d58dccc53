package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleave/leave-engine/config"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "PORT", "JWT_SECRET", "MONTHLY_LEAVE_LIMIT", "LEAVE_STORE", "ALLOWED_ORIGINS", "CACHE_TTL"} {
		t.Setenv(k, "")
	}

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 3, cfg.MonthlyLeaveLimit)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "sqlite", cfg.LeaveStore)
	assert.NotEmpty(t, cfg.JWTSecret, "development gets a fallback secret")
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.AllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MONTHLY_LEAVE_LIMIT", "5")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.MonthlyLeaveLimit)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoad_ProductionNeedsSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestValidate(t *testing.T) {
	cfg := config.Config{Port: 8080, JWTSecret: "x", MonthlyLeaveLimit: 0, LeaveStore: "mongo"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONTHLY_LEAVE_LIMIT")
	assert.Contains(t, err.Error(), "MONGO_URI")
}
