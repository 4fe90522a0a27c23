package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DatabaseURL       string
	ReportingCurrency string
	NBPURL            string
	CoinGeckoURL      string
	YahooURL          string
	ExternalRetryMax  int
	ExternalRetryBase time.Duration
	RefreshInterval   time.Duration
	SnapshotInterval  time.Duration
	HTTPPort          string
	AdminAPIKey       string
	SheetsID          string
	SheetsCredentials string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		DatabaseURL:       envOrDefaultWarn("DATABASE_URL", ""),
		ReportingCurrency: envOrDefault("REPORTING_CURRENCY", "PLN"),
		NBPURL:            envOrDefault("NBP_URL", "https://api.nbp.pl/api"),
		CoinGeckoURL:      envOrDefault("COINGECKO_URL", "https://api.coingecko.com/api/v3"),
		YahooURL:          envOrDefault("YAHOO_URL", "https://query1.finance.yahoo.com"),
		ExternalRetryMax:  envOrDefaultInt("EXTERNAL_RETRY_MAX", 5),
		ExternalRetryBase: envOrDefaultDuration("EXTERNAL_RETRY_BASE_DELAY", 2*time.Second),
		RefreshInterval:   envOrDefaultDuration("REFRESH_INTERVAL", 1*time.Hour),
		SnapshotInterval:  envOrDefaultDuration("SNAPSHOT_INTERVAL", 24*time.Hour),
		HTTPPort:          envOrDefault("HTTP_PORT", "8080"),
		AdminAPIKey:       envOrDefault("ADMIN_API_KEY", ""),
		SheetsID:          envOrDefault("SHEETS_SPREADSHEET_ID", ""),
		SheetsCredentials: envOrDefault("SHEETS_CREDENTIALS_JSON", ""),
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultWarn(key, defaultVal string) string {
	v := envOrDefault(key, defaultVal)
	if v == "" {
		slog.Warn("required env var not set", "key", key)
	}
	return v
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}
