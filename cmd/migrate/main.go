package main

import (
	"fmt"
	"os"

	"github.com/threadfit/backend/internal/config"
	"github.com/threadfit/backend/internal/database"
	"github.com/threadfit/backend/internal/logger"
	"go.uber.org/zap"
)

func main() {
	// Parse command
	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "up":
		runMigrationsUp()
	case "down":
		runMigrationsDown()
	default:
		fmt.Println("Usage: migrate [up|down]")
		fmt.Println("  up   - Create or update the schema")
		fmt.Println("  down - Drop every ThreadFit table (development only)")
		os.Exit(1)
	}
}

func connect() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	_ = logger.Initialize(cfg.LogLevel, "")

	logger.Log.Info("Connecting to database...", zap.String("driver", cfg.Database.Driver))
	if err := database.Initialize(cfg.Database, false); err != nil {
		logger.Log.Fatal("Failed to connect to database", zap.Error(err))
	}
	return cfg
}

func runMigrationsUp() {
	connect()
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("Migration failed", zap.Error(err))
	}
	logger.Log.Info("All migrations completed successfully")
}

func runMigrationsDown() {
	cfg := connect()
	defer database.Close()

	if !cfg.IsDevelopment() {
		logger.Log.Fatal("Refusing to drop tables outside development", zap.String("environment", cfg.Environment))
	}
	if err := database.DropAll(); err != nil {
		logger.Log.Fatal("Rollback failed", zap.Error(err))
	}
	logger.Log.Info("All tables dropped")
}
