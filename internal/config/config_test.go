package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("DB_DSN", "postgres://localhost/trainings")
	t.Setenv("ADMIN_IDS", "100, 200,300")
	t.Setenv("TZ_OFFSET_HOURS", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.TelegramToken)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "migrations", cfg.MigrationsPath)
	assert.Equal(t, []int64{100, 200, 300}, cfg.AdminIDs)
	assert.Equal(t, 5, cfg.TZOffsetHours)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("DB_DSN", "postgres://localhost/trainings")
	t.Setenv("ADMIN_IDS", "")
	t.Setenv("TZ_OFFSET_HOURS", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_BadAdminIDs(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("DB_DSN", "postgres://localhost/trainings")
	t.Setenv("ADMIN_IDS", "100,oops")
	t.Setenv("TZ_OFFSET_HOURS", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestIsAdmin(t *testing.T) {
	cfg := &Config{AdminIDs: []int64{100, 200}}

	assert.True(t, cfg.IsAdmin(100))
	assert.False(t, cfg.IsAdmin(300))
}
