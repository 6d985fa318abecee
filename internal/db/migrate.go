package db

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/diewo77/stock-manager/internal/config"
	"github.com/diewo77/stock-manager/internal/models"
	migrate "github.com/golang-migrate/migrate/v4"
	// The following blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/gorm"
)

// Models lists every table in dependency order.
func Models() []any {
	return []any{
		&models.User{},
		&models.Supplier{},
		&models.Product{},
		&models.Client{},
		&models.Order{},
		&models.OrderItem{},
		&models.Delivery{},
		&models.History{},
	}
}

// requiredTables are checked after any migration run.
var requiredTables = []string{"users", "products", "clients", "orders", "order_items", "deliveries", "histories"}

// Migrate brings the schema up to date according to cfg.App.Migrations.
func Migrate(conn *gorm.DB, cfg *config.Config, log *slog.Logger) error {
	switch cfg.App.Migrations {
	case config.MigrateOff:
		log.Info("migrations disabled")
		return nil
	case config.MigrateSQL:
		if cfg.Database.Driver != config.DriverPostgres {
			return fmt.Errorf("sql migrations require postgres, got %q", cfg.Database.Driver)
		}
		if err := runSQLMigrations(cfg.App.MigrationsDir, cfg.Database.URL()); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
	default:
		if err := AutoMigrate(conn); err != nil {
			return err
		}
	}
	if err := checkTables(conn); err != nil {
		return err
	}
	log.Info("migrations completed", slog.String("mode", cfg.App.Migrations))
	return nil
}

// AutoMigrate creates or alters tables from the GORM models.
func AutoMigrate(conn *gorm.DB) error {
	for _, m := range Models() {
		if err := conn.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

func checkTables(conn *gorm.DB) error {
	for _, table := range requiredTables {
		if !conn.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// runSQLMigrations executes the migrations found in dir using golang-migrate.
func runSQLMigrations(dir, url string) error {
	m, err := migrate.New("file://"+dir, url)
	if err != nil {
		return err
	}
	defer m.Close()
	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
