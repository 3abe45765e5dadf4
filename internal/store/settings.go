package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
)

const settingJWTSecret = "jwt_secret"

// GetSetting returns a stored setting, or ErrNotFound.
func GetSetting(ctx context.Context, db DBTX, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("getting setting %s: %w", key, err)
	}
	return value, nil
}

// GetJWTSecret returns the session signing key, generating and storing one on
// first use. INSERT OR IGNORE followed by a re-read keeps concurrent starts
// from ending up with different keys.
func GetJWTSecret(ctx context.Context, db DBTX) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}

	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`,
		settingJWTSecret, hex.EncodeToString(buf),
	)
	if err != nil {
		return "", fmt.Errorf("storing jwt secret: %w", err)
	}

	return GetSetting(ctx, db, settingJWTSecret)
}
