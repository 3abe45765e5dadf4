package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/erazemk/izposoja/internal/auth"
	"github.com/erazemk/izposoja/internal/db"
	"github.com/erazemk/izposoja/internal/store"
)

type webContextKey string

const webClaimsKey webContextKey = "webclaims"

const tokenCookie = "token"

const loginPath = "/auth/login"

// CookieAuthMiddleware validates the session cookie, checks token
// revocation, and adds the claims to the request context. Requests without
// a valid session are redirected to the login page.
func (s *Server) CookieAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(tokenCookie)
		if err != nil || cookie.Value == "" {
			http.Redirect(w, r, loginPath, http.StatusSeeOther)
			return
		}

		claims, err := auth.ValidateToken(s.JWTSecret, cookie.Value)
		if err != nil {
			s.clearAuthCookie(w)
			http.Redirect(w, r, loginPath, http.StatusSeeOther)
			return
		}

		conn, err := db.Conn(r.Context())
		if err != nil {
			slog.Error("failed to acquire connection for session check", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		revoked, err := store.IsTokenRevoked(r.Context(), conn, claims.ID)
		if err != nil {
			slog.Error("failed to check token revocation", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if revoked {
			s.clearAuthCookie(w)
			http.Redirect(w, r, loginPath, http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), webClaimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clearAuthCookie clears the authentication cookie.
func (s *Server) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie(tokenCookie, "", -1))
}

// CurrentUser returns the signed-in user's claims, or nil.
func CurrentUser(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(webClaimsKey).(*auth.Claims)
	return claims
}
