package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/projector"
)

// ItemsHandler handles item endpoints.
type ItemsHandler struct {
	Source projector.Source
	Now    func() time.Time
}

// itemResponse is one projected item with its humanized age.
type itemResponse struct {
	model.Item
	Age string `json:"age"`
}

// List handles GET /api/items. It accepts the same q, type and status
// parameters as the listing page and returns the items in display order.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	controls := model.ControlsFromQuery(r.URL.Query())

	snap, err := h.Source.FetchOnce(r.Context())
	if err != nil {
		slog.Error("failed to fetch items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to fetch items")
		return
	}

	now := h.Now().Unix()
	items := projector.Project(snap, controls)
	resp := make([]itemResponse, 0, len(items))
	for _, it := range items {
		resp = append(resp, itemResponse{
			Item: it,
			Age:  projector.Humanize(it.Timestamp, now),
		})
	}

	jsonResponse(w, http.StatusOK, resp)
}
