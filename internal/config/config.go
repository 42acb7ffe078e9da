package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// DefaultTickers is the seed watchlist used when no TICKERS value is
// configured. Matches the shipped default configuration.
const DefaultTickers = "VOW3.DE, INGA.AS, LHA.DE, VICI, KMI, O, ALV.DE, MC.PA"

// Config holds application configuration
type Config struct {
	Port           int
	LogLevel       string
	DevMode        bool
	DatabasePath   string
	OverridesPath  string
	HistoryDir     string
	TargetCurrency string
	LookbackDays   int
	Tickers        string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnvAsInt("PORT", 8010),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DevMode:        getEnvAsBool("DEV_MODE", false),
		DatabasePath:   getEnv("DATABASE_PATH", "./data/dashboard.db"),
		OverridesPath:  getEnv("OVERRIDES_PATH", "./data/dividend_overrides.json"),
		HistoryDir:     getEnv("HISTORY_DIR", "./data/history"),
		TargetCurrency: getEnv("TARGET_CURRENCY", "EUR"),
		LookbackDays:   getEnvAsInt("LOOKBACK_DAYS", 400),
		Tickers:        getEnv("TICKERS", DefaultTickers),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.OverridesPath == "" {
		return fmt.Errorf("OVERRIDES_PATH is required")
	}
	if c.TargetCurrency == "" {
		return fmt.Errorf("TARGET_CURRENCY is required")
	}
	if c.LookbackDays < 365 {
		return fmt.Errorf("LOOKBACK_DAYS must cover at least one year, got %d", c.LookbackDays)
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
