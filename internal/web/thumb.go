package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/erazemk/najdeno/internal/imaging"
)

// Thumbnailer proxies item photos from an allow-list of hosts and serves
// them downscaled. With no hosts configured it is disabled and cards link
// the original image URLs.
type Thumbnailer struct {
	hosts  map[string]bool
	client *http.Client
}

// NewThumbnailer creates a thumbnailer for the given hosts. A nil client
// means http.DefaultClient.
func NewThumbnailer(hosts []string, client *http.Client) *Thumbnailer {
	if client == nil {
		client = http.DefaultClient
	}
	t := &Thumbnailer{hosts: make(map[string]bool), client: client}
	for _, h := range hosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			t.hosts[h] = true
		}
	}
	return t
}

// Enabled reports whether any host is allowed.
func (t *Thumbnailer) Enabled() bool {
	return t != nil && len(t.hosts) > 0
}

// Allowed reports whether raw is an http(s) URL on an allowed host.
func (t *Thumbnailer) Allowed(raw string) bool {
	if !t.Enabled() {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return t.hosts[strings.ToLower(u.Hostname())]
}

// URL returns the address a card should load raw from: the thumbnail
// endpoint for allowed hosts, raw itself otherwise.
func (t *Thumbnailer) URL(raw string) string {
	if !t.Allowed(raw) {
		return raw
	}
	return "/thumb?src=" + url.QueryEscape(raw)
}

// Thumb handles GET /thumb?src=URL.
func (s *Server) Thumb(w http.ResponseWriter, r *http.Request) {
	src := r.URL.Query().Get("src")
	if !s.Thumbs.Allowed(src) {
		http.NotFound(w, r)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, src, nil)
	if err != nil {
		http.Error(w, "invalid image url", http.StatusBadRequest)
		return
	}
	resp, err := s.Thumbs.client.Do(req)
	if err != nil {
		slog.Warn("failed to fetch image", "src", src, "error", err)
		http.Error(w, "image unavailable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("image host returned error", "src", src, "status", resp.StatusCode)
		http.Error(w, fmt.Sprintf("image host returned %d", resp.StatusCode), http.StatusBadGateway)
		return
	}

	result, err := imaging.Thumbnail(resp.Body, imaging.MaxDimension)
	if err != nil {
		slog.Warn("failed to create thumbnail", "src", src, "error", err)
		http.Error(w, "unsupported image", http.StatusUnsupportedMediaType)
		return
	}

	w.Header().Set("Content-Type", result.MIME)
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := w.Write(result.Data); err != nil {
		slog.Error("failed to write thumbnail response", "error", err)
	}
}
