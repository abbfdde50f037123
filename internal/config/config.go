package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// Ledger feeds. SheetURL is the published-TSV export of the income
	// sheet; FarmsSheetURL the farming catalogue tab.
	SheetURL      string
	FarmsSheetURL string
	SheetBackend  string // "tsv" or "google"

	// Price proxy
	PriceProxyURL string

	// AMQP (optional; empty URL disables spreadsheet write-back)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Refresh scheduling
	FeedRefreshInterval  time.Duration
	PriceRefreshInterval time.Duration
	QuietHoursStart      int // hour of day, inclusive
	QuietHoursEnd        int // hour of day, exclusive
}

func Load() *Config {
	cfg := &Config{
		Port:         getEnv("PORT", "8081"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/dantaes.db"),

		SheetURL:      getEnv("SHEET_URL", ""),
		FarmsSheetURL: getEnv("FARMS_SHEET_URL", ""),
		SheetBackend:  getEnv("SHEET_BACKEND", "tsv"),

		PriceProxyURL: getEnv("PRICE_PROXY_URL", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "dantaes"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "sync_entries"),

		FeedRefreshInterval:  getEnvDuration("FEED_REFRESH_INTERVAL", 15*time.Minute),
		PriceRefreshInterval: getEnvDuration("PRICE_REFRESH_INTERVAL", time.Hour),
		QuietHoursStart:      getEnvInt("QUIET_HOURS_START", 0),
		QuietHoursEnd:        getEnvInt("QUIET_HOURS_END", 8),
	}

	return cfg
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	switch c.SheetBackend {
	case "tsv":
		if c.SheetURL == "" {
			errors = append(errors, "SHEET_URL is required for the tsv backend")
		} else if !isHTTPURL(c.SheetURL) {
			errors = append(errors, fmt.Sprintf("invalid sheet URL '%s'", c.SheetURL))
		}
		if c.FarmsSheetURL != "" && !isHTTPURL(c.FarmsSheetURL) {
			errors = append(errors, fmt.Sprintf("invalid farms sheet URL '%s'", c.FarmsSheetURL))
		}
	case "google":
		if os.Getenv("GOOGLE_SPREADSHEET_ID") == "" {
			errors = append(errors, "GOOGLE_SPREADSHEET_ID is required for the google backend")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid sheet backend '%s': must be 'tsv' or 'google'", c.SheetBackend))
	}

	if c.PriceProxyURL != "" && !isHTTPURL(c.PriceProxyURL) {
		errors = append(errors, fmt.Sprintf("invalid price proxy URL '%s'", c.PriceProxyURL))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.FeedRefreshInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid feed refresh interval %v: must be at least 1 minute", c.FeedRefreshInterval))
	}
	if c.PriceRefreshInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid price refresh interval %v: must be at least 1 minute", c.PriceRefreshInterval))
	}

	if c.QuietHoursStart < 0 || c.QuietHoursStart > 23 {
		errors = append(errors, fmt.Sprintf("invalid quiet hours start %d: must be 0-23", c.QuietHoursStart))
	}
	if c.QuietHoursEnd < 0 || c.QuietHoursEnd > 24 {
		errors = append(errors, fmt.Sprintf("invalid quiet hours end %d: must be 0-24", c.QuietHoursEnd))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
