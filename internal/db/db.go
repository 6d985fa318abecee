// Package db opens the database and prepares its schema.
package db

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/diewo77/stock-manager/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// connectAttempts and retryDelay give Postgres time to start alongside the app.
var (
	connectAttempts = 10
	retryDelay      = 2 * time.Second
)

// Connect opens the database selected by cfg.Driver and checks it answers.
func Connect(cfg config.DatabaseConfig, log *slog.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel), TranslateError: true}

	var conn *gorm.DB
	for i := 0; i < connectAttempts; i++ {
		conn, err = gorm.Open(dialector, gcfg)
		if err == nil {
			break
		}
		log.Warn("retrying database connection", slog.Int("attempt", i+1), slog.Any("error", err))
		time.Sleep(retryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}

	if pingErr := conn.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}
	if cfg.Driver == config.DriverSQLite {
		log.Info("database connected", slog.String("driver", cfg.Driver), slog.String("path", cfg.SQLitePath))
	} else {
		log.Info("database connected",
			slog.String("driver", cfg.Driver),
			slog.String("host", cfg.Host),
			slog.Int("port", cfg.Port),
			slog.String("dbname", cfg.DBName),
			slog.String("user", cfg.User),
		)
	}
	return conn, nil
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverPostgres, "":
		return postgres.Open(cfg.DSN()), nil
	case config.DriverSQLite:
		return sqlite.Open(cfg.SQLitePath), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
}
