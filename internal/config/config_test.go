package config

import (
	"os"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Port:                 "8081",
		SQLiteDBPath:         "./test.db",
		SheetBackend:         "tsv",
		SheetURL:             "https://docs.google.com/spreadsheets/d/x/pub?output=tsv",
		FeedRefreshInterval:  15 * time.Minute,
		PriceRefreshInterval: time.Hour,
		QuietHoursStart:      0,
		QuietHoursEnd:        8,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErr     bool
		errorString string
	}{
		{
			name:   "valid tsv config",
			mutate: func(c *Config) {},
		},
		{
			name:        "invalid port - non-numeric",
			mutate:      func(c *Config) { c.Port = "abc" },
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range low",
			mutate:      func(c *Config) { c.Port = "0" },
			wantErr:     true,
			errorString: "invalid port 0: must be between 1 and 65535",
		},
		{
			name:        "invalid port - out of range high",
			mutate:      func(c *Config) { c.Port = "70000" },
			wantErr:     true,
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "missing database path",
			mutate:      func(c *Config) { c.SQLiteDBPath = "" },
			wantErr:     true,
			errorString: "SQLite database path cannot be empty",
		},
		{
			name:        "invalid sheet backend",
			mutate:      func(c *Config) { c.SheetBackend = "csv" },
			wantErr:     true,
			errorString: "invalid sheet backend 'csv'",
		},
		{
			name:        "tsv backend missing sheet URL",
			mutate:      func(c *Config) { c.SheetURL = "" },
			wantErr:     true,
			errorString: "SHEET_URL is required for the tsv backend",
		},
		{
			name:        "malformed sheet URL",
			mutate:      func(c *Config) { c.SheetURL = "not a url" },
			wantErr:     true,
			errorString: "invalid sheet URL",
		},
		{
			name:        "malformed farms sheet URL",
			mutate:      func(c *Config) { c.FarmsSheetURL = "ftp://example.com/farms" },
			wantErr:     true,
			errorString: "invalid farms sheet URL",
		},
		{
			name:        "malformed price proxy URL",
			mutate:      func(c *Config) { c.PriceProxyURL = "::bad::" },
			wantErr:     true,
			errorString: "invalid price proxy URL",
		},
		{
			name:        "invalid AMQP URL scheme",
			mutate:      func(c *Config) { c.AMQPURL = "http://localhost:5672/" },
			wantErr:     true,
			errorString: "invalid AMQP URL scheme 'http': must be 'amqp' or 'amqps'",
		},
		{
			name: "AMQP URL without exchange",
			mutate: func(c *Config) {
				c.AMQPURL = "amqp://localhost:5672/"
				c.AMQPExchange = ""
				c.AMQPQueue = "q"
			},
			wantErr:     true,
			errorString: "AMQP exchange name cannot be empty when AMQP URL is provided",
		},
		{
			name: "AMQP URL without queue",
			mutate: func(c *Config) {
				c.AMQPURL = "amqp://localhost:5672/"
				c.AMQPExchange = "x"
				c.AMQPQueue = ""
			},
			wantErr:     true,
			errorString: "AMQP queue name cannot be empty when AMQP URL is provided",
		},
		{
			name:        "feed refresh interval too short",
			mutate:      func(c *Config) { c.FeedRefreshInterval = 10 * time.Second },
			wantErr:     true,
			errorString: "invalid feed refresh interval 10s: must be at least 1 minute",
		},
		{
			name:        "price refresh interval too short",
			mutate:      func(c *Config) { c.PriceRefreshInterval = 500 * time.Millisecond },
			wantErr:     true,
			errorString: "invalid price refresh interval 500ms: must be at least 1 minute",
		},
		{
			name:        "quiet hours start out of range",
			mutate:      func(c *Config) { c.QuietHoursStart = 24 },
			wantErr:     true,
			errorString: "invalid quiet hours start 24: must be 0-23",
		},
		{
			name:        "quiet hours end out of range",
			mutate:      func(c *Config) { c.QuietHoursEnd = 25 },
			wantErr:     true,
			errorString: "invalid quiet hours end 25: must be 0-24",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Errorf("Config.Validate() error = nil, wantErr %v", tt.wantErr)
					return
				}
				if tt.errorString != "" && !contains(err.Error(), tt.errorString) {
					t.Errorf("Config.Validate() error = %v, want error containing %v", err.Error(), tt.errorString)
				}
			} else if err != nil {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	originalVars := map[string]string{
		"PORT":               os.Getenv("PORT"),
		"SQLITE_DB_PATH":     os.Getenv("SQLITE_DB_PATH"),
		"SHEET_URL":          os.Getenv("SHEET_URL"),
		"SHEET_BACKEND":      os.Getenv("SHEET_BACKEND"),
		"PRICE_PROXY_URL":    os.Getenv("PRICE_PROXY_URL"),
		"AMQP_URL":           os.Getenv("AMQP_URL"),
		"FEED_REFRESH_INTERVAL":  os.Getenv("FEED_REFRESH_INTERVAL"),
		"PRICE_REFRESH_INTERVAL": os.Getenv("PRICE_REFRESH_INTERVAL"),
		"QUIET_HOURS_START":  os.Getenv("QUIET_HOURS_START"),
		"QUIET_HOURS_END":    os.Getenv("QUIET_HOURS_END"),
	}
	for key := range originalVars {
		os.Unsetenv(key)
	}
	defer func() {
		for key, value := range originalVars {
			if value != "" {
				os.Setenv(key, value)
			} else {
				os.Unsetenv(key)
			}
		}
	}()

	t.Run("default values", func(t *testing.T) {
		cfg := Load()

		if cfg.Port != "8081" {
			t.Errorf("Load() Port = %v, want 8081", cfg.Port)
		}
		if cfg.SQLiteDBPath != "./data/dantaes.db" {
			t.Errorf("Load() SQLiteDBPath = %v, want ./data/dantaes.db", cfg.SQLiteDBPath)
		}
		if cfg.SheetBackend != "tsv" {
			t.Errorf("Load() SheetBackend = %v, want tsv", cfg.SheetBackend)
		}
		if cfg.FeedRefreshInterval != 15*time.Minute {
			t.Errorf("Load() FeedRefreshInterval = %v, want 15m", cfg.FeedRefreshInterval)
		}
		if cfg.PriceRefreshInterval != time.Hour {
			t.Errorf("Load() PriceRefreshInterval = %v, want 1h", cfg.PriceRefreshInterval)
		}
		if cfg.QuietHoursStart != 0 || cfg.QuietHoursEnd != 8 {
			t.Errorf("Load() quiet hours = %d-%d, want 0-8", cfg.QuietHoursStart, cfg.QuietHoursEnd)
		}
	})

	t.Run("environment variables", func(t *testing.T) {
		os.Setenv("PORT", "9090")
		os.Setenv("SHEET_URL", "https://example.com/pub?output=tsv")
		os.Setenv("PRICE_PROXY_URL", "https://proxy.example.com")
		os.Setenv("FEED_REFRESH_INTERVAL", "5m")
		os.Setenv("QUIET_HOURS_END", "6")

		cfg := Load()

		if cfg.Port != "9090" {
			t.Errorf("Load() Port = %v, want 9090", cfg.Port)
		}
		if cfg.SheetURL != "https://example.com/pub?output=tsv" {
			t.Errorf("Load() SheetURL = %v", cfg.SheetURL)
		}
		if cfg.PriceProxyURL != "https://proxy.example.com" {
			t.Errorf("Load() PriceProxyURL = %v", cfg.PriceProxyURL)
		}
		if cfg.FeedRefreshInterval != 5*time.Minute {
			t.Errorf("Load() FeedRefreshInterval = %v, want 5m", cfg.FeedRefreshInterval)
		}
		if cfg.QuietHoursEnd != 6 {
			t.Errorf("Load() QuietHoursEnd = %v, want 6", cfg.QuietHoursEnd)
		}
	})

	t.Run("invalid environment variables use defaults", func(t *testing.T) {
		os.Setenv("FEED_REFRESH_INTERVAL", "soon")
		os.Setenv("QUIET_HOURS_START", "midnight")

		cfg := Load()

		if cfg.FeedRefreshInterval != 15*time.Minute {
			t.Errorf("Load() FeedRefreshInterval = %v, want 15m (default for invalid input)", cfg.FeedRefreshInterval)
		}
		if cfg.QuietHoursStart != 0 {
			t.Errorf("Load() QuietHoursStart = %v, want 0 (default for invalid input)", cfg.QuietHoursStart)
		}
	})
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || func() bool {
		for i := 0; i <= len(s)-len(substr); i++ {
			if s[i:i+len(substr)] == substr {
				return true
			}
		}
		return false
	}())
}
