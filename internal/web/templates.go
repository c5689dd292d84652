package web

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/erazemk/najdeno/internal/model"
	webembed "github.com/erazemk/najdeno/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap(thumbs *Thumbnailer) template.FuncMap {
	return template.FuncMap{
		"imageSrc": thumbs.URL,
		"optionLabel": func(value string) string {
			if value == model.FilterAll {
				return "All"
			}
			return value
		},
	}
}

// LoadTemplates parses all page templates with the layout and the grid
// partial.
func LoadTemplates(thumbs *Thumbnailer) (*Templates, error) {
	tfs := webembed.TemplatesFS()

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}
	gridBytes, err := fs.ReadFile(tfs, "grid.html")
	if err != nil {
		return nil, fmt.Errorf("reading grid template: %w", err)
	}

	pages := []string{
		"index.html",
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap(thumbs))
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(gridBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing grid for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a page template with the given data.
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

// RenderGrid renders only the item grid for view.
func (ts *Templates) RenderGrid(w io.Writer, view any) error {
	tmpl, ok := ts.templates["index.html"]
	if !ok {
		return fmt.Errorf("grid template not loaded")
	}
	if err := tmpl.ExecuteTemplate(w, "grid", view); err != nil {
		return fmt.Errorf("rendering grid: %w", err)
	}
	return nil
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title string
}
