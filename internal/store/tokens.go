package store

import (
	"context"
	"fmt"
	"time"
)

// RevokeToken puts a session token's JTI on the revocation list until it
// would have expired anyway.
func RevokeToken(ctx context.Context, db DBTX, jti string, expiresAt time.Time) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO revoked_tokens (jti, expires_at) VALUES (?, ?)`,
		jti, expiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}

	// Expired entries can never match a valid token.
	if _, err := PurgeExpiredTokens(ctx, db); err != nil {
		return err
	}
	return nil
}

// IsTokenRevoked checks if a token's JTI has been revoked.
func IsTokenRevoked(ctx context.Context, db DBTX, jti string) (bool, error) {
	var revoked bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = ?)`, jti,
	).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	return revoked, nil
}

// PurgeExpiredTokens deletes revocations whose tokens have expired and
// returns how many were removed.
func PurgeExpiredTokens(ctx context.Context, db DBTX) (int64, error) {
	result, err := db.ExecContext(ctx,
		`DELETE FROM revoked_tokens WHERE expires_at < ?`, now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("purging revoked tokens: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
