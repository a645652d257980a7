package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("JOBS_PENDING_INTERVAL", "5m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, time.Hour, cfg.JWT.AccessExpiration)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 5*time.Minute, cfg.Jobs.PendingInterval)
	assert.Equal(t, "https://date.nager.at", cfg.Holiday.BaseURL)
	assert.Contains(t, cfg.DatabaseURL(), "postgres://postgres:pw@localhost:5432/")
	assert.Equal(t, "http://localhost:8080/api/v1/attendance/selfies", cfg.Storage.BaseURL)
}

func TestLoad_Rejects(t *testing.T) {
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("JWT_SECRET_KEY", "")
	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET_KEY")

	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("DB_PORT", "not-a-port")
	_, err = Load()
	assert.ErrorContains(t, err, "DB_PORT")
}
