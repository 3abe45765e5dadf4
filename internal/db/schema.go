package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS item (
    id              INTEGER PRIMARY KEY,
    name            TEXT NOT NULL,
    user_id         INTEGER REFERENCES users(id),
    last_update     TEXT NOT NULL,
    detail          TEXT,
    return_schedule TEXT,
    note            TEXT
);

CREATE TABLE IF NOT EXISTS item_photos (
    item_id    INTEGER PRIMARY KEY REFERENCES item(id) ON DELETE CASCADE,
    image      BLOB NOT NULL,
    image_mime TEXT NOT NULL,
    thumb      BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
