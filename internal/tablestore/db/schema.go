package db

import (
	"context"
	"database/sql"
	_ "embed"
	"strings"
)

//go:embed schema.sql
var Schema string

// Migrate applies the schema one statement at a time, the libsql remote driver does not
// accept multiple statements in one exec.
func Migrate(ctx context.Context, database *sql.DB) error {
	for _, stmt := range strings.Split(Schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		_, err := database.ExecContext(ctx, stmt)
		if err != nil {
			return err
		}
	}
	return nil
}
