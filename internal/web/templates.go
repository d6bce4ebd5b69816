package web

import (
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/biblioteca/internal/auth"
	"github.com/erazemk/biblioteca/internal/loans"
	"github.com/erazemk/biblioteca/internal/model"
	webembed "github.com/erazemk/biblioteca/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"roleAtLeast": model.RoleAtLeast,
		"roleName": func(role string) string {
			switch role {
			case model.RoleAdmin:
				return "Administrador"
			case model.RoleLibrarian:
				return "Bibliotecario"
			default:
				return role
			}
		},
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(loans.DateLayout)
		},
		"dateTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Local().Format("02/01/2006 15:04")
		},
		"dateInput": func(t *time.Time) string {
			if t == nil || t.IsZero() {
				return ""
			}
			return t.Format(inputDateLayout)
		},
		"deref": func(id *int64) int64 {
			if id == nil {
				return 0
			}
			return *id
		},
	}
}

var pages = []string{
	"login.html",
	"error.html",
	"settings.html",
	"users.html",
	"countries.html",
	"country_form.html",
	"country_detail.html",
	"editions.html",
	"edition_form.html",
	"edition_detail.html",
	"books.html",
	"book_form.html",
	"book_detail.html",
	"lookups.html",
	"lookup_form.html",
	"loans.html",
	"loan_create.html",
	"loan_edit.html",
	"loans_deleted.html",
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

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with status 200.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	ts.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus renders a template with the given status code.
func (ts *Templates) RenderStatus(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title   string
	User    *auth.Claims
	CSRF    string
	Errors  []string
	Success string
}

func (s *Server) page(r *http.Request, title string) PageData {
	claims := GetWebClaims(r.Context())
	pd := PageData{Title: title, User: claims, Success: notices[r.URL.Query().Get("ok")]}
	if claims != nil {
		pd.CSRF = auth.CSRFToken(s.JWTSecret, claims.ID)
	}
	return pd
}

// notices are the success banners selectable through the "ok" query
// parameter after a redirect.
var notices = map[string]string{
	"created":  "Registro creado correctamente.",
	"updated":  "Registro actualizado correctamente.",
	"deleted":  "Registro eliminado correctamente.",
	"stock":    "Existencias actualizadas.",
	"cover":    "Portada actualizada.",
	"password": "Contraseña actualizada.",
}
