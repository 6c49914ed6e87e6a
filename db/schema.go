/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"

	// Register pgx with database/sql for goose migrations.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// MigrationsDir is the goose directory inside the embedded filesystem.
const MigrationsDir = "migrations"

//go:embed migrations/*.sql
var embedMigrations embed.FS

// OpenMigrationDB opens a database/sql handle for goose and points goose at
// the embedded migrations. The caller closes the handle.
func OpenMigrationDB(ctx context.Context, databaseURL string) (*sql.DB, error) {
	if databaseURL == "" {
		return nil, ErrDatabaseURLEnvVarNotSet
	}

	sqlDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database for migrations: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		closeMigrationDB(sqlDB)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		closeMigrationDB(sqlDB)
		return nil, fmt.Errorf("failed to set dialect: %w", err)
	}

	return sqlDB, nil
}

func closeMigrationDB(sqlDB *sql.DB) {
	if err := sqlDB.Close(); err != nil {
		logger.Warn("Failed to close migration connection", "error", err)
	}
}

// SyncSchema brings the schema up to the latest embedded migration. It takes
// the original connection string rather than the pool config so Unix socket
// paths survive.
func SyncSchema(ctx context.Context, databaseURL string) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	sqlDB, err := OpenMigrationDB(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer closeMigrationDB(sqlDB)

	if err := goose.UpContext(ctx, sqlDB, MigrationsDir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	logger.Info("Schema up to date", "version", version)

	return nil
}
