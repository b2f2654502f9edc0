package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "balham", cfg.Grid.Theme)
	assert.Equal(t, time.Second, cfg.Grid.CallTimeout)
	assert.Empty(t, cfg.Grid.LicenseKey)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("GRID_THEME", "alpine")
	t.Setenv("AG_GRID_LICENSE_KEY", "test-license")
	t.Setenv("GRID_CALL_TIMEOUT", "250ms")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "alpine", cfg.Grid.Theme)
	assert.Equal(t, "test-license", cfg.Grid.LicenseKey)
	assert.Equal(t, 250*time.Millisecond, cfg.Grid.CallTimeout)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadDefaultsWhenUnset(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.Server.Port)
	assert.NotZero(t, cfg.Grid.CallTimeout)
}
