// Package cli provides common CLI initialization utilities.
// This package consolidates repeated initialization patterns across
// cmd/budgetwise and cmd/alert-worker.
package cli

import (
	"os"

	"github.com/joho/godotenv"

	"budgetwise/internal/config"
	"budgetwise/internal/log"
	"budgetwise/internal/storage"
)

// SetupLogger initializes structured logging for the given component.
// Returns the configured logger and sets it as the process default.
func SetupLogger(component string) *log.Logger {
	logger := log.New(log.Config{Component: component})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite initializes a SQLite repository with the given path.
// Returns the repository or exits the process on failure.
func InitSQLite(logger *log.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}
