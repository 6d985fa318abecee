package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diewo77/stock-manager/auth"
	"github.com/diewo77/stock-manager/internal/config"
	"github.com/diewo77/stock-manager/internal/db"
	"github.com/diewo77/stock-manager/internal/obs"
	"github.com/joho/godotenv"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()
	log := obs.NewLogger(cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	conn, err := db.Connect(cfg.Database, log)
	if err != nil {
		return err
	}

	if *migrateOnlyFlag {
		return db.Migrate(conn, cfg, log)
	}
	if *seedOnlyFlag {
		if err := db.Seed(conn, cfg.App.AdminPassword); err != nil {
			return err
		}
		log.Info("seeding completed")
		return nil
	}

	if err := db.Migrate(conn, cfg, log); err != nil {
		return err
	}
	if cfg.App.Seed {
		if err := db.Seed(conn, cfg.App.AdminPassword); err != nil {
			return err
		}
	}

	auth.SetSecret(cfg.App.SessionSecret)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      NewApp(conn, cfg, log),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("driver", cfg.Database.Driver),
			slog.Bool("dev", cfg.App.Dev),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errc:
		return err
	case <-quit:
		log.Info("shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}
