package commands

import (
	"context"
	"fmt"

	"medschool-scraper/config"
	"medschool-scraper/storage"
	"medschool-scraper/utils"
)

// loadConfig reads the environment and applies the persistent flags.
func loadConfig() (*config.Config, *utils.Logger) {
	cfg := config.Load()
	if *storeDriver != "" {
		cfg.StoreDriver = *storeDriver
	}

	logger := utils.NewLogger()
	logger.SetDebug(cfg.LogLevel == "debug")
	return cfg, logger
}

// openSink connects to the configured store. Configuration is validated
// first so a missing credential fails before any input is read.
func openSink(ctx context.Context, cfg *config.Config, logger *utils.Logger) (storage.SchoolSink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.StoreDriver {
	case config.DriverSQLite:
		logger.Info("[store] Opening SQLite database %s", cfg.SQLitePath)
		return storage.NewSQLiteWriter(ctx, cfg.SQLitePath)
	default:
		logger.Info("[store] Connecting to PostgreSQL")
		sink, err := storage.NewPostgresWriter(ctx, cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		return sink, nil
	}
}
