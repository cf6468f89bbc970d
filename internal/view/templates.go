// Package view renders the embedded HTML templates.
package view

import (
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/rentiva/rentiva/internal/shared"
	"github.com/rentiva/rentiva/web"
)

// Engine holds the parsed template set.
type Engine struct {
	templates *template.Template
}

// TemplateData is the envelope every page template receives.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	Data        any
}

// NewEngine parses the embedded layouts, partials and pages once at
// startup.
func NewEngine() (*Engine, error) {
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006 15:04")
		},
		"navActive": func(current, href string) string {
			if current == href {
				return "active"
			}
			return ""
		},
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates,
		"templates/layouts/*.html",
		"templates/partials/*.html",
		"templates/pages/*.html",
	)
	if err != nil {
		return nil, fmt.Errorf("view: parse templates: %w", err)
	}
	return &Engine{templates: tpl}, nil
}

// Render executes the named page template.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("view: engine not initialised")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return e.templates.ExecuteTemplate(w, name, data)
}
