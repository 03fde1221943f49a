package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, 30*time.Minute, cfg.Orders.ConfirmationTTL)
	assert.Equal(t, "order_updates", cfg.Notify.Exchange)
	assert.NotNil(t, cfg.Orders.Location())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "7")
	t.Setenv("APP_TIMEZONE", "Europe/Berlin")
	t.Setenv("CONFIRMATION_TOKEN_TTL", "1h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 7, cfg.Database.MaxOpenConns)
	assert.Equal(t, "Europe/Berlin", cfg.Orders.Location().String())
	assert.Equal(t, time.Hour, cfg.Orders.ConfirmationTTL)
}

func TestLoadRejectsBadTimezone(t *testing.T) {
	t.Setenv("APP_TIMEZONE", "Mars/Olympus_Mons")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsNonPositiveTTL(t *testing.T) {
	t.Setenv("CONFIRMATION_TOKEN_TTL", "0s")

	_, err := Load()
	assert.Error(t, err)
}
