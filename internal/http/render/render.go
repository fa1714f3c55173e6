// Package render renders the admin pages from embedded templates.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"pilex/internal/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Page names.
const (
	PageDashboard   = "dashboard"
	PageLogin       = "login"
	PageReport      = "report"
	PageOverview    = "overview"
	PageEditContent = "editcontent"
	PageUsers       = "users"
	PageEditUser    = "edituser"
	PageError       = "error"
)

var pages = []string{
	PageDashboard, PageLogin, PageReport, PageOverview,
	PageEditContent, PageUsers, PageEditUser, PageError,
}

// Page is the data passed to every template. Data holds the page specific part.
type Page struct {
	Title        string
	User         *models.SessionUser
	Flashes      []models.Flash
	ContentTypes []models.ContentType
	Data         any
}

type Renderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

var funcs = template.FuncMap{
	"levelName": models.LevelName,
	"statuses":  models.Statuses,
	"datetime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(time.DateTime)
	},
}

// New parses the layout once and one clone of it per page.
func New(logger *slog.Logger) (*Renderer, error) {
	layout, err := template.New("layout").Funcs(funcs).ParseFS(templateFS, "templates/layout.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(pages)), logger: logger}
	for _, name := range pages {
		t, err := layout.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(templateFS, "templates/"+name+".tmpl"); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render executes page into a buffer and writes it with status. Nothing is
// written when execution fails.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data Page) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		r.logger.Error("template execution failed",
			slog.String("template", page),
			slog.Any("error", err),
		)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
