package database

import (
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/noah-isme/school-portal-api/migrations"
)

// Migration commands accepted by Migrate.
const (
	MigrateUp     = "up"
	MigrateDown   = "down"
	MigrateStatus = "status"
	MigrateReset  = "reset"
)

// Migrate runs a goose command against the embedded SQL migrations.
func Migrate(db *sql.DB, command string) error {
	goose.SetBaseFS(migrations.FS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	var err error
	switch command {
	case MigrateUp:
		err = goose.Up(db, ".")
	case MigrateDown:
		err = goose.Down(db, ".")
	case MigrateStatus:
		err = goose.Status(db, ".")
	case MigrateReset:
		err = goose.Reset(db, ".")
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", command, err)
	}
	return nil
}
