package database

import (
	"fmt"
	"time"

	"github.com/threadfit/backend/internal/config"
	"github.com/threadfit/backend/internal/logger"
	"github.com/threadfit/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB holds the database connection
var DB *gorm.DB

// Initialize opens the configured database and tunes the connection pool.
func Initialize(cfg config.DatabaseConfig, development bool) error {
	gormLogger := gormlogger.Default.LogMode(gormlogger.Warn)
	if development {
		gormLogger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	db, err := Open(cfg, &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if cfg.Driver == "sqlite" {
		// SQLite serializes writers; one connection avoids SQLITE_BUSY under
		// concurrent generation runs.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	DB = db
	logger.Log.Info("Database connected", zap.String("driver", cfg.Driver))
	return nil
}

// Open returns a gorm handle for the configured driver without touching the global.
func Open(cfg config.DatabaseConfig, gormCfg *gorm.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.URL)
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath + "?_foreign_keys=on")
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Migrate runs auto-migration against the global connection.
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	return MigrateDB(DB)
}

// userBatchFK ties generated users to their batch. batches.user_id already
// points at users, so the key cannot be created with the users table.
const userBatchFK = "fk_users_batch"

// MigrateDB creates or updates the schema on db.
func MigrateDB(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Batch{},
		&models.Post{},
		&models.Comment{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if !db.Migrator().HasConstraint(&models.User{}, userBatchFK) {
		if err := db.Migrator().CreateConstraint(&models.User{}, userBatchFK); err != nil {
			return fmt.Errorf("failed to add %s: %w", userBatchFK, err)
		}
		// SQLite adds constraints by rebuilding the table, which drops its indexes.
		if err := db.AutoMigrate(&models.User{}); err != nil {
			return fmt.Errorf("failed to restore user indexes: %w", err)
		}
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logger.Log.Info("Database migrations completed")
	return nil
}

// DropAll removes every ThreadFit table, dependents first.
func DropAll() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	return DropAllDB(DB)
}

// DropAllDB removes every ThreadFit table from db.
func DropAllDB(db *gorm.DB) error {
	if err := db.Migrator().DropTable(&models.Comment{}, &models.Post{}, &models.User{}, &models.Batch{}); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}
	return nil
}

// createIndexes adds the composite indexes batch browsing relies on.
func createIndexes(db *gorm.DB) error {
	statements := []string{
		"CREATE INDEX IF NOT EXISTS idx_batches_user_created ON batches (user_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_posts_batch_created ON posts (batch_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_comments_batch_created ON comments (batch_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_comments_post_created ON comments (post_id, created_at)",
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health checks database connectivity
func Health() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
