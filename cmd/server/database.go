package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/phrazzld/yomu-api/internal/config"
	"github.com/phrazzld/yomu-api/internal/platform/postgres"
	"github.com/phrazzld/yomu-api/internal/platform/sqlite"
	"github.com/phrazzld/yomu-api/internal/store"
)

const pingTimeout = 5 * time.Second

// openPostgres opens a pooled connection and verifies it with a ping.
func openPostgres(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// openStore opens the configured backend and returns its card store. The
// postgres schema is migrated first when auto_migrate is set.
func openStore(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*sql.DB, store.CardStore, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := openPostgres(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		if cfg.AutoMigrate {
			if err := postgres.Migrate(ctx, db, "up", log); err != nil {
				_ = db.Close()
				return nil, nil, err
			}
		}
		log.Info("database connection established", slog.String("driver", cfg.Driver))
		return db, postgres.NewPostgresCardStore(db, log), nil

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		log.Info("database connection established",
			slog.String("driver", cfg.Driver),
			slog.String("path", cfg.Path))
		return db, sqlite.NewSQLiteCardStore(db, log), nil

	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
