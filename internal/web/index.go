package web

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/projector"
)

// indexData is passed to index.html.
type indexData struct {
	PageData
	View          projector.View
	TypeOptions   []string
	StatusOptions []string
}

// Index handles GET /. It fetches the collection once and renders the grid
// for the controls in the query string.
func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	controls := model.ControlsFromQuery(r.URL.Query())

	snap, err := s.Source.FetchOnce(r.Context())
	view := projector.View{Controls: controls}
	if err != nil {
		slog.Error("failed to fetch items", "error", err)
	} else {
		view = projector.BuildView(snap, controls, s.Now())
	}

	s.Templates.Render(w, "index.html", &indexData{
		PageData:      PageData{Title: "Lost & Found"},
		View:          view,
		TypeOptions:   selectorOptions(snap, func(it model.Item) string { return it.ItemType }, controls.Type, model.ItemTypeLost, model.ItemTypeFound),
		StatusOptions: selectorOptions(snap, func(it model.Item) string { return it.Status }, controls.Status, model.ItemStatusOpen, model.ItemStatusClosed),
	})
}

// selectorOptions lists "all" followed by the defaults, every value of field
// present in snap, and the current selection, sorted and without duplicates.
func selectorOptions(snap model.Snapshot, field func(model.Item) string, current string, defaults ...string) []string {
	seen := map[string]bool{model.FilterAll: true}
	var values []string
	add := func(v string) {
		if v == "" || seen[v] {
			return
		}
		seen[v] = true
		values = append(values, v)
	}

	for _, v := range defaults {
		add(v)
	}
	for _, it := range snap {
		add(field(it))
	}
	add(current)

	sort.Strings(values)
	return append([]string{model.FilterAll}, values...)
}
