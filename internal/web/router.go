package web

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/erazemk/najdeno/internal/projector"
	webembed "github.com/erazemk/najdeno/web"
)

// Options configures the web router.
type Options struct {
	// ThumbHosts lists image hosts the thumbnail proxy may fetch from.
	ThumbHosts []string
	// HTTPClient fetches proxied images. Defaults to http.DefaultClient.
	HTTPClient *http.Client
	// Now is the clock for relative ages. Defaults to time.Now.
	Now func() time.Time
	// CheckOrigin validates live channel handshakes. Defaults to the
	// websocket package's same-origin check.
	CheckOrigin func(r *http.Request) bool
}

// Server holds all dependencies for page handlers.
type Server struct {
	Source    projector.Source
	Templates *Templates
	Thumbs    *Thumbnailer
	Now       func() time.Time

	upgrader websocket.Upgrader
}

// NewRouter creates the web page router with all page routes registered.
func NewRouter(source projector.Source, opts Options) (http.Handler, error) {
	thumbs := NewThumbnailer(opts.ThumbHosts, opts.HTTPClient)

	templates, err := LoadTemplates(thumbs)
	if err != nil {
		return nil, err
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	s := &Server{
		Source:    source,
		Templates: templates,
		Thumbs:    thumbs,
		Now:       now,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     opts.CheckOrigin,
		},
	}

	mux := http.NewServeMux()

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	mux.HandleFunc("GET /{$}", s.Index)
	mux.HandleFunc("GET /live", s.Live)
	mux.HandleFunc("GET /thumb", s.Thumb)

	return mux, nil
}
