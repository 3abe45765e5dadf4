package web

import (
	"database/sql"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/izposoja/internal/auth"
	"github.com/erazemk/izposoja/internal/model"
	webembed "github.com/erazemk/izposoja/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"value": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"stateName": func(state model.ItemState) string {
			switch state {
			case model.StateAvailable:
				return "Available"
			case model.StateLent:
				return "Lent"
			default:
				return string(state)
			}
		},
		"overdue": func(returnSchedule *string) bool {
			return returnSchedule != nil && *returnSchedule < time.Now().Format(model.DateLayout)
		},
	}
}

// pages lists every page template; each is parsed together with layout.html.
var pages = []string{
	"home.html",
	"login.html",
	"register.html",
	"index_item.html",
	"my_status.html",
	"detail_item.html",
	"create_item.html",
	"update_item.html",
	"delete_item.html",
	"lend_item.html",
	"return_item.html",
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl, err := template.New(page).Funcs(FuncMap()).Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		if tmpl, err = tmpl.Parse(string(pageBytes)); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title   string
	User    *auth.Claims
	Year    int
	Error   string
	Success string
}

func (p *PageData) base() *PageData { return p }

// page is implemented by PageData and every struct embedding it.
type page interface {
	base() *PageData
}

// Server holds all dependencies for page handlers.
type Server struct {
	DB            *sql.DB
	Templates     *Templates
	JWTSecret     string
	SecureCookies bool
}

// render fills the common page fields (current user, year, pending flash)
// and renders the named template.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data page) {
	p := data.base()
	if p.User == nil {
		p.User = CurrentUser(r.Context())
	}
	p.Year = time.Now().Year()

	if f, ok := s.popFlash(w, r); ok && p.Error == "" && p.Success == "" {
		if f.Kind == flashError {
			p.Error = f.Message
		} else {
			p.Success = f.Message
		}
	}

	s.Templates.Render(w, name, data)
}
