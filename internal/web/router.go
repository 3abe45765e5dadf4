package web

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/izposoja/internal/db"
	webembed "github.com/erazemk/izposoja/web"
)

// NewRouter creates the web page router with all page routes registered.
// Every request runs inside its own database scope.
func NewRouter(pool *sql.DB, jwtSecret string, secureCookies bool) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		DB:            pool,
		Templates:     templates,
		JWTSecret:     jwtSecret,
		SecureCookies: secureCookies,
	}

	mux := http.NewServeMux()
	authed := func(h http.HandlerFunc) http.Handler { return s.CookieAuthMiddleware(h) }

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	// Public routes.
	mux.HandleFunc("GET /{$}", s.HomePage)
	mux.HandleFunc("GET /home", s.HomePage)
	mux.HandleFunc("GET /auth/login", s.LoginPage)
	mux.HandleFunc("POST /auth/login", s.LoginSubmit)
	mux.HandleFunc("POST /auth/logout", s.Logout)
	mux.HandleFunc("GET /auth/register", s.RegisterPage)
	mux.HandleFunc("POST /auth/register", s.RegisterSubmit)

	// Item routes.
	mux.Handle("GET /item", http.RedirectHandler("/item/", http.StatusMovedPermanently))
	mux.Handle("GET /item/{$}", authed(s.ItemsPage))
	mux.Handle("GET /item/my_status", authed(s.MyStatusPage))
	mux.Handle("GET /item/create_item", authed(s.CreateItemPage))
	mux.Handle("POST /item/create_item", authed(s.CreateItemSubmit))
	mux.Handle("GET /item/{id}/detail_item", authed(s.ItemDetailPage))
	mux.Handle("GET /item/{id}/update_item", authed(s.UpdateItemPage))
	mux.Handle("POST /item/{id}/update_item", authed(s.UpdateItemSubmit))
	mux.Handle("GET /item/{id}/delete_item", authed(s.DeleteItemPage))
	mux.Handle("POST /item/{id}/delete_item", authed(s.DeleteItemSubmit))
	mux.Handle("GET /item/{id}/lend_item", authed(s.LendItemPage))
	mux.Handle("POST /item/{id}/lend_item", authed(s.LendItemSubmit))
	mux.Handle("GET /item/{id}/return_item", authed(s.ReturnItemPage))
	mux.Handle("POST /item/{id}/return_item", authed(s.ReturnItemSubmit))
	mux.Handle("GET /item/{id}/photo", authed(s.ItemPhotoGet))
	mux.Handle("POST /item/{id}/photo", authed(s.ItemPhotoSubmit))

	return db.ScopeMiddleware(pool)(mux), nil
}
