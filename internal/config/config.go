package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the configuration for the application.
type Config struct {
	DatabasePath      string
	RecipeStoragePath string
	LogLevel          string

	// USDA FoodData Central
	USDAAPIKey           string
	USDABaseURL          string
	USDARatePerHour      int
	USDAFailureThreshold int
	// USDALookupBudget caps the time one grocery list spends on remote aisle lookups.
	USDALookupBudget     time.Duration

	// Aisle classification
	AisleOverridesPath string

	// Sharing
	ShareBaseURL string

	// LLM providers used for recipe extraction
	GeminiAPIKey string
	GroqAPIKey   string

	// Ghost (recipe catalog source and shared list publishing)
	GhostURL        string
	GhostContentKey string
	GhostAdminKey   string

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64
}

const (
	defaultDatabasePath   = "data/grocery.db"
	defaultRecipeStorage  = "data/recipes"
	defaultUSDABaseURL    = "https://api.nal.usda.gov/fdc/v1"
	defaultShareBaseURL   = "https://grocery.example.com/grocerylist.html"
	defaultRatePerHour    = 1000
	defaultFailureTrigger = 3
	defaultLookupBudget   = 20 * time.Second
)

// NewFromEnv creates a new Config object from environment variables.
// A .env file in the working directory is loaded first when present.
func NewFromEnv() (*Config, error) {
	_ = godotenv.Load()

	usdaAPIKey := os.Getenv("USDA_API_KEY")
	if usdaAPIKey == "" {
		return nil, fmt.Errorf("USDA_API_KEY environment variable not set")
	}

	ratePerHour, err := intFromEnv("USDA_RATE_PER_HOUR", defaultRatePerHour)
	if err != nil {
		return nil, err
	}
	failureThreshold, err := intFromEnv("USDA_FAILURE_THRESHOLD", defaultFailureTrigger)
	if err != nil {
		return nil, err
	}

	lookupBudget := defaultLookupBudget
	if raw := os.Getenv("USDA_LOOKUP_BUDGET"); raw != "" {
		lookupBudget, err = time.ParseDuration(raw)
		if err != nil || lookupBudget <= 0 {
			return nil, fmt.Errorf("USDA_LOOKUP_BUDGET must be a positive duration, got %q", raw)
		}
	}

	ghostContentKey := os.Getenv("GHOST_CONTENT_API_KEY")
	ghostAdminKey := os.Getenv("GHOST_ADMIN_API_KEY")
	if ghostAdminKey == "" {
		// Fallback to content key if only one is provided
		ghostAdminKey = ghostContentKey
	}

	allowed, err := parseIDList(os.Getenv("TELEGRAM_ALLOWED_USER_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS: %w", err)
	}

	var adminID int64
	if raw := os.Getenv("ADMIN_TELEGRAM_ID"); raw != "" {
		adminID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}

	return &Config{
		DatabasePath:           envOr("DATABASE_PATH", defaultDatabasePath),
		RecipeStoragePath:      envOr("RECIPE_STORAGE_PATH", defaultRecipeStorage),
		LogLevel:               envOr("LOG_LEVEL", "info"),
		USDAAPIKey:             usdaAPIKey,
		USDABaseURL:            envOr("USDA_BASE_URL", defaultUSDABaseURL),
		USDARatePerHour:        ratePerHour,
		USDAFailureThreshold:   failureThreshold,
		USDALookupBudget:       lookupBudget,
		AisleOverridesPath:     os.Getenv("AISLE_OVERRIDES_PATH"),
		ShareBaseURL:           envOr("SHARE_BASE_URL", defaultShareBaseURL),
		GeminiAPIKey:           os.Getenv("GEMINI_API_KEY"),
		GroqAPIKey:             os.Getenv("GROQ_API_KEY"),
		GhostURL:               os.Getenv("GHOST_API_URL"),
		GhostContentKey:        ghostContentKey,
		GhostAdminKey:          ghostAdminKey,
		TelegramBotToken:       os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL:     os.Getenv("TELEGRAM_WEBHOOK_URL"),
		TelegramAllowedUserIDs: allowed,
		AdminTelegramID:        adminID,
	}, nil
}

// GhostEnabled reports whether enough Ghost settings are present to talk to the Content API.
func (c *Config) GhostEnabled() bool {
	return c.GhostURL != "" && c.GhostContentKey != ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intFromEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return v, nil
}

func parseIDList(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
