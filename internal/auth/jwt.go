package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer is the iss claim of every session token.
const Issuer = "izposoja"

// TokenExpiry is the session lifetime.
const TokenExpiry = 24 * time.Hour

// Claims represents the JWT claims of a signed-in user.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// ExpiresAtTime returns the expiry, or now plus TokenExpiry when unset.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Now().Add(TokenExpiry)
	}
	return c.ExpiresAt.Time
}

// GenerateToken signs a new session token for a user.
func GenerateToken(secret string, userID int64, username string) (string, error) {
	if secret == "" {
		return "", errors.New("signing token: empty secret")
	}

	issued := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    Issuer,
			Subject:   fmt.Sprint(userID),
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(TokenExpiry)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a session token, returning its claims.
func ValidateToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID <= 0 {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
