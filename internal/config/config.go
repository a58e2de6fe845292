// Package config provides configuration management functionality.
//
// This package handles loading configuration from environment variables
// (and an optional .env file). The datastore-backed AutoTraderConfig
// singleton (see internal/autotrader) is a separate, hot-reloadable concern
// managed by the store package — this Config only covers process-level
// infrastructure: where the database lives, what the external HTTP services
// are, and how the process logs and listens.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds process-level configuration loaded from the environment.
type Config struct {
	DataDir            string // base directory for the sqlite database file
	AccountID           string
	TradernetAPIKey     string
	TradernetAPISecret  string
	LogLevel            string
	Port                int // status/health/manual-trigger HTTP port
	DevMode             bool

	ScannerBaseURL     string
	AnalysisBaseURL    string
	SuggestionsBaseURL string
	QuoteBaseURL       string
	CalendarBaseURL    string
	ProfileBaseURL     string
	ChartBaseURL       string
	MarketDataAPIKey   string

	RealtimeChannelURL string
	BroadMarketSymbol  string
}

// Load reads configuration from environment variables, falling back to a
// .env file in the working directory if present.
func Load(dataDirOverride ...string) (*Config, error) {
	_ = godotenv.Load()

	dataDir := ""
	if len(dataDirOverride) > 0 && dataDirOverride[0] != "" {
		dataDir = dataDirOverride[0]
	} else {
		dataDir = getEnv("TRADER_DATA_DIR", "./data")
	}
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("resolve data directory: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:            absDataDir,
		AccountID:          getEnv("AUTOTRADER_ACCOUNT_ID", ""),
		TradernetAPIKey:    getEnv("TRADERNET_API_KEY", ""),
		TradernetAPISecret: getEnv("TRADERNET_API_SECRET", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		Port:               getEnvAsInt("GO_PORT", 8001),
		DevMode:            getEnvAsBool("DEV_MODE", false),

		ScannerBaseURL:     getEnv("SCANNER_SERVICE_URL", ""),
		AnalysisBaseURL:    getEnv("ANALYSIS_SERVICE_URL", ""),
		SuggestionsBaseURL: getEnv("SUGGESTIONS_SERVICE_URL", ""),
		QuoteBaseURL:       getEnv("QUOTE_SERVICE_URL", ""),
		CalendarBaseURL:    getEnv("CALENDAR_SERVICE_URL", ""),
		ProfileBaseURL:     getEnv("PROFILE_SERVICE_URL", ""),
		ChartBaseURL:       getEnv("CHART_SERVICE_URL", ""),
		MarketDataAPIKey:   getEnv("MARKET_DATA_API_KEY", ""),

		RealtimeChannelURL: getEnv("REALTIME_CHANNEL_URL", ""),
		BroadMarketSymbol:  getEnv("BROAD_MARKET_SYMBOL", "SPY"),
	}

	return cfg, nil
}

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
