package db

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"readlog/internal/config"
	"readlog/internal/logger"
	"readlog/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open connects to the configured store. TranslateError lets callers match gorm.ErrDuplicatedKey
// on both drivers.
func Open(cfg *config.DBConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(SQLiteDSN(cfg.SQLitePath))
	case "postgres", "":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.NewGormLogger(),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}
	if cfg.Driver == "sqlite" {
		// one writer at a time; sqlite has no row locks
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(cfg.MaxIdle)
		sqlDB.SetMaxOpenConns(cfg.MaxOpen)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Minute)
	}

	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database connection check failed: %w", err)
	}

	slog.Info("Database connection established", "driver", cfg.Driver)
	return conn, nil
}

// SQLiteDSN turns a file path (or ":memory:") into a DSN with foreign keys enforced.
func SQLiteDSN(path string) string {
	if path == ":memory:" {
		return "file::memory:?_foreign_keys=on"
	}
	if strings.Contains(path, "?") {
		return path
	}
	return "file:" + path + "?_foreign_keys=on&_busy_timeout=5000"
}

// Migrate creates or updates every table.
func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&models.User{},
		&models.Book{},
		&models.Post{},
		&models.Like{},
		&models.Repost{},
		&models.Comment{},
		&models.Follow{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	slog.Info("Database migration completed")
	return nil
}
