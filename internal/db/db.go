package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/senyabanana/auction-service/internal/router/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InitDb инициализирует подключение к базе данных и возвращает пул соединений.
func InitDb(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	if cfg.PostgresConn == "" {
		return nil, fmt.Errorf("database connection string is missing")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := dbPool.Ping(pingCtx); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("database is unreachable: %w", err)
	}

	return dbPool, nil
}

// RunMigrations применяет миграции из migrationURL.
func RunMigrations(migrationURL, dbSource string) error {
	migration, err := migrate.New(migrationURL, dbSource)
	if err != nil {
		return fmt.Errorf("cannot create a new migrate instance: %w", err)
	}
	defer migration.Close()

	if err = migration.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrate up: %w", err)
	}
	return nil
}
