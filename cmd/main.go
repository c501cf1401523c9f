package main

import (
	"context"
	"database/sql"
	"errors"
	"os"

	"github.com/desertthunder/senti/internal/shared"
)

const defaultConfigPath = "config.toml"

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat(defaultConfigPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(defaultConfigPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "error", err)
		}
	}

	if err := config.ApplyEnv(".env"); err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}

	var db *sql.DB
	if opened, err := shared.OpenMigrated(config.Database); err == nil {
		db = opened
		defer db.Close()
	} else {
		logger.Warn("local database unavailable, session will not persist", "path", config.Database.Path, "error", err)
	}

	runner := NewRunner(RunnerOpts{
		Config: config,
		DB:     db,
		Logger: logger,
	})

	if err := runner.app().Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			return
		}
		logger.Error(err)
		if db != nil {
			db.Close()
		}
		os.Exit(1)
	}
}
