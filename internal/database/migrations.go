package database

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"

	"checkout-api/migrations"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// migrationSource picks the embedded migrations unless an on-disk directory is configured
func migrationSource(migrationsDir string) (fs.FS, string) {
	if migrationsDir != "" {
		return os.DirFS(migrationsDir), "."
	}
	return migrations.FS, "."
}

// RunMigrations executes all pending database migrations
func RunMigrations(db *sql.DB, migrationsDir string, logger *zap.Logger) error {
	fsys, dir := migrationSource(migrationsDir)
	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	logger.Info("Checking for pending migrations...", zap.String("dir", migrationsDir), zap.Bool("embedded", migrationsDir == ""))

	if err := goose.Up(db, dir); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Migrations completed successfully")
	return nil
}

// GetMigrationStatus returns the current migration status
func GetMigrationStatus(db *sql.DB, migrationsDir string) error {
	fsys, dir := migrationSource(migrationsDir)
	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.Status(db, dir)
}
