// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Alerts   AlertsConfig
	LogLevel string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string { return ":" + s.Port }

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig holds connection settings for PostgreSQL or SQLite.
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SQLitePath string
	Debug      bool
}

// DSN returns the PostgreSQL connection string in key=value format.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URL returns the PostgreSQL connection string in URL format.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Migration modes.
const (
	MigrateAuto = "auto" // GORM AutoMigrate
	MigrateSQL  = "sql"  // golang-migrate files
	MigrateOff  = "off"
)

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev           bool
	Migrations    string
	Seed          bool
	AdminPassword string
	SessionSecret string
	MigrationsDir string
}

// AlertsConfig holds the stock alert thresholds.
type AlertsConfig struct {
	ExpiryWindow time.Duration
}

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Driver:     strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnvInt("DB_PORT", 5432),
			User:       getEnv("DB_USER", "stock"),
			Password:   getEnv("DB_PASSWORD", "stock123"),
			DBName:     getEnv("DB_NAME", "stock"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			SQLitePath: getEnv("SQLITE_PATH", "stock.db"),
			Debug:      getEnvBool("DB_DEBUG", false),
		},
		App: AppConfig{
			Dev:           getEnvBool("DEV", true),
			Migrations:    migrationMode(getEnv("MIGRATIONS", MigrateAuto)),
			Seed:          getEnvBool("DB_SEED", true),
			AdminPassword: getEnv("ADMIN_PASSWORD", "admin"),
			SessionSecret: getEnv("SESSION_SECRET", "dev-secret-change-me"),
			MigrationsDir: getEnv("MIGRATIONS_DIR", "migrations"),
		},
		Alerts: AlertsConfig{
			ExpiryWindow: time.Duration(getEnvInt("EXPIRY_WINDOW_DAYS", 7)) * 24 * time.Hour,
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// migrationMode normalizes MIGRATIONS. Boolean values are accepted for
// compatibility: true means auto, false means off.
func migrationMode(v string) string {
	switch strings.ToLower(v) {
	case MigrateSQL:
		return MigrateSQL
	case MigrateOff, "0", "false", "no":
		return MigrateOff
	default:
		return MigrateAuto
	}
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}
