package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromEnv(t *testing.T) {
	// Helper function to set environment variables for a test
	setEnv := func(key, value string) {
		t.Helper()
		t.Setenv(key, value)
	}

	t.Run("Success", func(t *testing.T) {
		setEnv("USDA_API_KEY", "usda_key")
		setEnv("GHOST_API_URL", "http://ghost.test")
		setEnv("GHOST_CONTENT_API_KEY", "ghost_key")
		setEnv("GHOST_ADMIN_API_KEY", "")
		setEnv("TELEGRAM_ALLOWED_USER_IDS", "12, 34")
		setEnv("USDA_RATE_PER_HOUR", "")
		setEnv("USDA_LOOKUP_BUDGET", "")

		cfg, err := NewFromEnv()
		require.NoError(t, err)

		assert.Equal(t, "usda_key", cfg.USDAAPIKey)
		assert.Equal(t, defaultUSDABaseURL, cfg.USDABaseURL)
		assert.Equal(t, defaultRatePerHour, cfg.USDARatePerHour)
		assert.Equal(t, defaultLookupBudget, cfg.USDALookupBudget)
		assert.Equal(t, defaultDatabasePath, cfg.DatabasePath)
		assert.Equal(t, defaultRecipeStorage, cfg.RecipeStoragePath)
		assert.Equal(t, "ghost_key", cfg.GhostAdminKey, "admin key falls back to content key")
		assert.Equal(t, []int64{12, 34}, cfg.TelegramAllowedUserIDs)
		assert.True(t, cfg.GhostEnabled())
	})

	t.Run("MissingUSDAAPIKey", func(t *testing.T) {
		setEnv("USDA_API_KEY", "")
		os.Unsetenv("USDA_API_KEY")

		_, err := NewFromEnv()
		require.Error(t, err)
		assert.Equal(t, "USDA_API_KEY environment variable not set", err.Error())
	})

	t.Run("InvalidRate", func(t *testing.T) {
		setEnv("USDA_API_KEY", "usda_key")
		setEnv("USDA_RATE_PER_HOUR", "-4")

		_, err := NewFromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "USDA_RATE_PER_HOUR")
	})

	t.Run("LookupBudget", func(t *testing.T) {
		setEnv("USDA_API_KEY", "usda_key")
		setEnv("USDA_RATE_PER_HOUR", "")
		setEnv("USDA_LOOKUP_BUDGET", "5s")

		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, 5*time.Second, cfg.USDALookupBudget)

		setEnv("USDA_LOOKUP_BUDGET", "soon")
		_, err = NewFromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "USDA_LOOKUP_BUDGET")
		setEnv("USDA_LOOKUP_BUDGET", "")
	})

	t.Run("InvalidAllowedIDs", func(t *testing.T) {
		setEnv("USDA_API_KEY", "usda_key")
		setEnv("USDA_RATE_PER_HOUR", "")
		setEnv("TELEGRAM_ALLOWED_USER_IDS", "12,abc")

		_, err := NewFromEnv()
		require.Error(t, err)
	})
}
