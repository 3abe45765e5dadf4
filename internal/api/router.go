package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/izposoja/internal/db"
)

// NewRouter creates the API router with all endpoints registered. Every
// request runs inside its own database scope.
func NewRouter(pool *sql.DB, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{JWTSecret: jwtSecret}
	itemsHandler := &ItemsHandler{}

	authMW := AuthMiddleware(jwtSecret)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("GET /api/items/mine", authMW(http.HandlerFunc(itemsHandler.Mine)))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Update)))
	mux.Handle("DELETE /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Delete)))
	mux.Handle("POST /api/items/{id}/lend", authMW(http.HandlerFunc(itemsHandler.Lend)))
	mux.Handle("POST /api/items/{id}/return", authMW(http.HandlerFunc(itemsHandler.Return)))

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusNotFound, "no such endpoint")
	})

	return db.ScopeMiddleware(pool)(mux)
}
