package db

import (
	"context"
	"database/sql"
	"embed"

	"github.com/pressly/goose/v3"
)

// Migrations holds the embedded SQL migration files.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// Run executes a goose command ("up", "down", "status", ...) against conn
// using the embedded migrations.
func Run(ctx context.Context, conn *sql.DB, command string) error {
	goose.SetBaseFS(Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.RunContext(ctx, command, conn, "migrations")
}

// Up migrates conn to the latest schema version.
func Up(ctx context.Context, conn *sql.DB) error {
	return Run(ctx, conn, "up")
}
