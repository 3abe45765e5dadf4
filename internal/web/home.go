package web

import "net/http"

// HomePage handles GET / and GET /home.
func (s *Server) HomePage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "home.html", &PageData{Title: "Home"})
}
