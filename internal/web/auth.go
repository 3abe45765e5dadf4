package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/izposoja/internal/auth"
	"github.com/erazemk/izposoja/internal/db"
	"github.com/erazemk/izposoja/internal/model"
	"github.com/erazemk/izposoja/internal/store"
)

type credentialsPage struct {
	PageData
	Username string
}

// LoginPage handles GET /auth/login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "login.html", &credentialsPage{PageData: PageData{Title: "Log in"}})
}

// LoginSubmit handles POST /auth/login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	fail := func(msg string) {
		s.render(w, r, "login.html", &credentialsPage{
			PageData: PageData{Title: "Log in", Error: msg},
			Username: username,
		})
	}

	if username == "" || password == "" {
		fail("Please enter your username and password.")
		return
	}

	conn, ok := s.conn(w, r)
	if !ok {
		return
	}

	user, err := store.GetUserByUsername(r.Context(), conn, username)
	if errors.Is(err, store.ErrNotFound) {
		fail("Incorrect username or password.")
		return
	}
	if err != nil {
		s.fail(w, err, "look up user")
		return
	}

	if err := auth.VerifyPassword(user.PasswordHash, password); err != nil {
		fail("Incorrect username or password.")
		return
	}

	token, err := auth.GenerateToken(s.JWTSecret, user.ID, user.Username)
	if err != nil {
		slog.Error("failed to issue token", "user", user.Username, "error", err)
		fail("Could not sign you in.")
		return
	}

	http.SetCookie(w, s.cookie(tokenCookie, token, int(auth.TokenExpiry.Seconds())))
	slog.Info("user logged in", "user", user.Username)
	s.redirectWithFlash(w, r, "/item/", "Welcome back, "+user.Username+".")
}

// Logout handles POST /auth/logout. The session token is revoked so a copied
// cookie stops working as well.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(tokenCookie); err == nil && cookie.Value != "" {
		if claims, err := auth.ValidateToken(s.JWTSecret, cookie.Value); err == nil {
			conn, err := db.Conn(r.Context())
			if err == nil {
				err = store.RevokeToken(r.Context(), conn, claims.ID, claims.ExpiresAtTime())
			}
			if err != nil {
				slog.Error("failed to revoke token", "user", claims.Username, "error", err)
			}
		}
	}

	s.clearAuthCookie(w)
	s.redirectWithFlash(w, r, loginPath, "You have been logged out.")
}

// RegisterPage handles GET /auth/register.
func (s *Server) RegisterPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "register.html", &credentialsPage{PageData: PageData{Title: "Register"}})
}

// RegisterSubmit handles POST /auth/register.
func (s *Server) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	fail := func(msg string) {
		s.render(w, r, "register.html", &credentialsPage{
			PageData: PageData{Title: "Register", Error: msg},
			Username: username,
		})
	}

	if err := model.ValidatePassword(password); err != nil {
		fail(err.Error())
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		s.fail(w, err, "hash password")
		return
	}

	conn, ok := s.conn(w, r)
	if !ok {
		return
	}

	if _, err := store.CreateUser(r.Context(), conn, username, hash); err != nil {
		if ve, ok := store.IsValidation(err); ok {
			fail(ve.Message)
			return
		}
		s.fail(w, err, "create user")
		return
	}

	slog.Info("user registered", "user", username)
	s.redirectWithFlash(w, r, loginPath, "Registration complete. Please log in.")
}
