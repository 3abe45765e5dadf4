package model

import (
	"fmt"
	"time"
)

// User represents an account that can sign in and borrow items.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// ValidatePassword checks a new password against the length policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}
