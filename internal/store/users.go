package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/erazemk/izposoja/internal/model"
)

// CreateUser creates a new user.
func CreateUser(ctx context.Context, db DBTX, username, passwordHash string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, invalid("username", "Username is required.")
	}

	existing, err := GetUserByUsername(ctx, db, username)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, invalid("username", fmt.Sprintf("User %s is already registered.", username))
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash) VALUES (?, ?)`,
		username, passwordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID, or ErrNotFound.
func GetUser(ctx context.Context, db DBTX, id int64) (*model.User, error) {
	u := &model.User{}
	err := db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByUsername returns a user by username, or ErrNotFound.
func GetUserByUsername(ctx context.Context, db DBTX, username string) (*model.User, error) {
	u := &model.User{}
	err := db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by username: %w", err)
	}
	return u, nil
}

// ListUsers returns all users.
func ListUsers(ctx context.Context, db DBTX) ([]model.User, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, db DBTX, id int64, passwordHash string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ?`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
