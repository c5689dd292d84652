package web

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/projector"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	readLimit  = 4 << 10
)

// Frame types on the live channel.
const (
	frameGrid     = "grid"
	frameControls = "controls"
)

// gridFrame carries a freshly rendered grid to the browser, which swaps it
// in place of the current one.
type gridFrame struct {
	Type     string         `json:"type"`
	HTML     string         `json:"html"`
	Count    int            `json:"count"`
	Controls model.Controls `json:"controls"`
}

// clientFrame is sent by the browser whenever a control changes.
type clientFrame struct {
	Type string `json:"type"`
	model.Controls
}

// liveDisplay renders views into grid frames on one connection.
type liveDisplay struct {
	templates *Templates

	mu   sync.Mutex // guards writes to conn
	conn *websocket.Conn
}

func (d *liveDisplay) Replace(ctx context.Context, view projector.View) error {
	var buf bytes.Buffer
	if err := d.templates.RenderGrid(&buf, view); err != nil {
		return err
	}

	return d.write(func(c *websocket.Conn) error {
		return c.WriteJSON(gridFrame{
			Type:     frameGrid,
			HTML:     buf.String(),
			Count:    len(view.Cards),
			Controls: view.Controls,
		})
	})
}

func (d *liveDisplay) ping() error {
	return d.write(func(c *websocket.Conn) error {
		return c.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
	})
}

func (d *liveDisplay) write(fn func(*websocket.Conn) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return fn(d.conn)
}

// Live handles GET /live. Each connection gets its own projector: pushed
// collection changes and control frames both end in a full grid frame.
func (s *Server) Live(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("live upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	logger := slog.With("session", uuid.NewString())
	logger.Info("live session opened", "remote", r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	display := &liveDisplay{templates: s.Templates, conn: conn}
	p := projector.New(s.Source, display,
		projector.WithClock(s.Now),
		projector.WithLogger(logger),
		projector.WithControls(model.ControlsFromQuery(r.URL.Query())),
	)

	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := p.Run(ctx); err != nil {
			logger.Error("live subscription ended", "error", err)
			conn.Close()
		}
	}()
	go func() {
		defer wg.Done()
		pingLoop(ctx, display)
	}()

	conn.SetReadLimit(readLimit)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame clientFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("live read failed", "error", err)
			}
			break
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		if frame.Type != frameControls {
			continue
		}

		// Every control change fetches and renders on its own; when two
		// overlap, the later Replace wins.
		wg.Add(1)
		go func(c model.Controls) {
			defer wg.Done()
			if err := p.SetControls(ctx, c); err != nil && ctx.Err() == nil {
				logger.Error("failed to apply controls", "error", err)
			}
		}(frame.Controls)
	}

	cancel()
	logger.Info("live session closed")
}

func pingLoop(ctx context.Context, d *liveDisplay) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.ping(); err != nil {
				return
			}
		}
	}
}
