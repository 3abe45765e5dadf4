package web

import (
	"encoding/base64"
	"net/http"
	"strings"
)

const flashCookie = "flash"

const (
	flashSuccess = "success"
	flashError   = "error"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    string
	Message string
}

// setFlash stores a message for the page the client is redirected to.
func (s *Server) setFlash(w http.ResponseWriter, kind, message string) {
	http.SetCookie(w, s.cookie(flashCookie,
		kind+"|"+base64.RawURLEncoding.EncodeToString([]byte(message)), 60))
}

// popFlash reads and clears the pending flash message, if any.
func (s *Server) popFlash(w http.ResponseWriter, r *http.Request) (Flash, bool) {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return Flash{}, false
	}
	http.SetCookie(w, s.cookie(flashCookie, "", -1))

	kind, encoded, ok := strings.Cut(c.Value, "|")
	if !ok || (kind != flashSuccess && kind != flashError) {
		return Flash{}, false
	}
	msg, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return Flash{}, false
	}
	return Flash{Kind: kind, Message: string(msg)}, true
}

// redirectWithFlash sets a success message and redirects with 303.
func (s *Server) redirectWithFlash(w http.ResponseWriter, r *http.Request, target, message string) {
	s.setFlash(w, flashSuccess, message)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// cookie builds a site-wide HttpOnly cookie with consistent attributes.
func (s *Server) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	}
}
