package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithEchoProvider(t *testing.T) {
	t.Setenv("MODEL_PROVIDER", "echo")
	t.Setenv("FRONTEND_URL", "")
	t.Setenv("RATE_LIMIT_REQUESTS", "20")
	t.Setenv("RATE_LIMIT_WINDOW", "1m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Port)
	assert.Equal(t, "echo", cfg.Model.Provider)
	assert.Equal(t, 20, cfg.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadRequiresProviderKey(t *testing.T) {
	t.Setenv("MODEL_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "")

	_, err := Load()
	assert.ErrorContains(t, err, "OPENAI_API_KEY")
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("MODEL_PROVIDER", "mystery")
	_, err := Load()
	assert.Error(t, err)
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("X_DURATION", "90s")
	assert.Equal(t, 90*time.Second, getEnvDuration("X_DURATION", time.Minute))

	t.Setenv("X_DURATION", "45")
	assert.Equal(t, 45*time.Second, getEnvDuration("X_DURATION", time.Minute))

	t.Setenv("X_DURATION", "soon")
	assert.Equal(t, time.Minute, getEnvDuration("X_DURATION", time.Minute))
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("X_BOOL", "yes")
	assert.True(t, getEnvBool("X_BOOL", false))
	t.Setenv("X_BOOL", "off")
	assert.False(t, getEnvBool("X_BOOL", true))
	t.Setenv("X_BOOL", "maybe")
	assert.True(t, getEnvBool("X_BOOL", true))
}

func TestLoadClient(t *testing.T) {
	t.Setenv("PLANNER_ENDPOINT", "http://planner.test/api")
	t.Setenv("PLANNER_USER_ID", " user-7 ")
	t.Setenv("PLANNER_CACHE_BACKEND", "memory")
	t.Setenv("PLANNER_GENERATE_TIMEOUT", "30s")

	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "http://planner.test/api", cfg.Endpoint)
	assert.Equal(t, "user-7", cfg.UserID)
	assert.Equal(t, "memory", cfg.CacheBackend)
	assert.Equal(t, 30*time.Second, cfg.GenerateTimeout)
}

func TestLoadClientRejectsUnknownBackend(t *testing.T) {
	t.Setenv("PLANNER_CACHE_BACKEND", "etcd")
	_, err := LoadClient()
	assert.ErrorContains(t, err, "PLANNER_CACHE_BACKEND")
}
