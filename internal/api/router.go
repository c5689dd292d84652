package api

import (
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/erazemk/najdeno/internal/projector"
)

// NewRouter creates the API router with all endpoints registered. origins
// lists the browser origins allowed to call it cross-site.
func NewRouter(source projector.Source, origins []string, now func() time.Time) http.Handler {
	if now == nil {
		now = time.Now
	}

	mux := http.NewServeMux()

	itemsHandler := &ItemsHandler{Source: source, Now: now}

	mux.HandleFunc("GET /api/health", Health)
	mux.HandleFunc("GET /api/items", itemsHandler.List)

	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead},
		MaxAge:         600,
	})
	return c.Handler(mux)
}

// Health handles GET /api/health.
func Health(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
