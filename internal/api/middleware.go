package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/erazemk/izposoja/internal/auth"
	"github.com/erazemk/izposoja/internal/db"
	"github.com/erazemk/izposoja/internal/store"
)

type contextKey string

const claimsKey contextKey = "claims"

// AuthMiddleware validates the bearer token, rejects revoked tokens, and
// adds the claims to the request context.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				jsonError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}

			claims, err := auth.ValidateToken(secret, strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				jsonError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			conn, err := db.Conn(r.Context())
			if err != nil {
				slog.Error("failed to acquire connection for token check", "error", err)
				jsonError(w, http.StatusInternalServerError, "internal error")
				return
			}

			revoked, err := store.IsTokenRevoked(r.Context(), conn, claims.ID)
			if err != nil {
				slog.Error("failed to check token revocation", "error", err)
				jsonError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if revoked {
				jsonError(w, http.StatusUnauthorized, "token has been revoked")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaims retrieves the JWT claims from the context.
func GetClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// statusRecorder captures the first status code written.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.wroteHeader {
		return
	}
	r.status = code
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	return r.ResponseWriter.Write(b)
}

// LoggingMiddleware logs every request with its status and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		slog.Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.RequestURI(),
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond),
			"remote", r.RemoteAddr,
		)
	})
}
