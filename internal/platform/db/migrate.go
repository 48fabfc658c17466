package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"pms/migrations"
)

// gooseLogger sends goose output through slog.
type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...), "component", "migrations")
}

func (gooseLogger) Fatalf(format string, v ...any) {
	slog.Error(fmt.Sprintf(format, v...), "component", "migrations")
}

func openMigrations(pool *pgxpool.Pool) (*sql.DB, error) {
	goose.SetLogger(gooseLogger{})
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("set dialect: %w", err)
	}
	return stdlib.OpenDBFromPool(pool), nil
}

// Migrate applies every pending embedded migration.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	sqlDB, err := openMigrations(pool)
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(ctx context.Context, pool *pgxpool.Pool) error {
	sqlDB, err := openMigrations(pool)
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	if err := goose.DownContext(ctx, sqlDB, "."); err != nil {
		return fmt.Errorf("roll back migration: %w", err)
	}
	return nil
}

// MigrationStatus logs the applied state of every migration and returns the current version.
func MigrationStatus(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	sqlDB, err := openMigrations(pool)
	if err != nil {
		return 0, err
	}
	defer sqlDB.Close()
	if err := goose.StatusContext(ctx, sqlDB, "."); err != nil {
		return 0, fmt.Errorf("migration status: %w", err)
	}
	return goose.GetDBVersionContext(ctx, sqlDB)
}
