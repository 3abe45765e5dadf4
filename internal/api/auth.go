package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/izposoja/internal/auth"
	"github.com/erazemk/izposoja/internal/db"
	"github.com/erazemk/izposoja/internal/store"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	JWTSecret string
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "username and password required")
		return
	}

	conn, err := db.Conn(r.Context())
	if err != nil {
		storeError(w, err, "acquire connection")
		return
	}

	user, err := store.GetUserByUsername(r.Context(), conn, req.Username)
	if errors.Is(err, store.ErrNotFound) {
		slog.Warn("login failed", "username", req.Username, "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		storeError(w, err, "look up user")
		return
	}

	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		slog.Warn("login failed", "username", req.Username, "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, user.ID, user.Username)
	if err != nil {
		slog.Error("failed to issue token", "user", user.Username, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	slog.Info("user logged in", "user", user.Username, "via", "api")
	jsonResponse(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(auth.TokenExpiry).UTC().Truncate(time.Second),
	})
}

// Logout handles POST /api/auth/logout by revoking the presented token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	conn, err := db.Conn(r.Context())
	if err != nil {
		storeError(w, err, "acquire connection")
		return
	}

	if err := store.RevokeToken(r.Context(), conn, claims.ID, claims.ExpiresAtTime()); err != nil {
		storeError(w, err, "revoke token")
		return
	}

	slog.Info("user logged out", "user", claims.Username)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}
