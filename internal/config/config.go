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

	// Recurring catch-up
	CatchUpInterval time.Duration
	CatchUpAll      bool

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Alert worker
	NotificationFeedPath string

	// Export
	CurrencySymbol      string
	GoogleSpreadsheetID string

	// AI insights
	AIProvider string
	AIAPIKey   string
	AIModel    string
	AIBaseURL  string
}

func Load() *Config {
	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/budgetwise.db"),

		CatchUpInterval: getEnvDuration("RECURRING_CATCH_UP_INTERVAL", time.Hour),
		CatchUpAll:      getEnvBool("RECURRING_CATCH_UP_ALL", false),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "budgetwise"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "notifications"),

		NotificationFeedPath: getEnv("NOTIFICATION_FEED_PATH", "./data/notifications.log"),

		CurrencySymbol:      getEnv("CURRENCY_SYMBOL", "$"),
		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),

		AIProvider: getEnv("AI_PROVIDER", "gemini"),
		AIAPIKey:   getEnv("AI_API_KEY", ""),
		AIModel:    getEnv("AI_MODEL", ""),
		AIBaseURL:  getEnv("AI_BASE_URL", ""),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate SQLite path and ensure its directory exists
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

	// Validate catch-up interval
	if c.CatchUpInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid catch-up interval %v: must be at least 1 second", c.CatchUpInterval))
	} else if c.CatchUpInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid catch-up interval %v: must be at most 24 hours", c.CatchUpInterval))
	}

	// Validate AMQP URL if provided
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

	// Validate AI provider
	validProviders := []string{"gemini", "openai", "openrouter", "anthropic"}
	isValidProvider := false
	for _, p := range validProviders {
		if c.AIProvider == p {
			isValidProvider = true
			break
		}
	}
	if !isValidProvider {
		errors = append(errors, fmt.Sprintf("invalid AI provider '%s': must be one of %v", c.AIProvider, validProviders))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
