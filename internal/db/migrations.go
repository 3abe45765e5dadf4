package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: my_status filters on the borrower.
	`CREATE INDEX IF NOT EXISTS idx_item_user_id ON item(user_id)`,
}

// Migrate ensures the schema and runs the migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
