package collection

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/erazemk/najdeno/internal/model"
)

// DefaultRetryDelay is how long a Hub waits before re-subscribing after the
// upstream subscription fails.
const DefaultRetryDelay = 5 * time.Second

// Hub shares one upstream subscription among any number of subscribers.
// New subscribers first receive the most recent snapshot. A subscriber that
// falls behind only ever sees the latest snapshot. FetchOnce always goes to
// the upstream source.
type Hub struct {
	upstream Source
	logger   *slog.Logger
	retry    time.Duration

	mu        sync.Mutex
	latest    model.Snapshot
	hasLatest bool
	subs      map[*subscriber]struct{}
}

type subscriber struct {
	ch chan model.Snapshot
}

// offer hands snap to the subscriber, replacing an undelivered snapshot.
// Called with the hub lock held, so there is only ever one sender.
func (s *subscriber) offer(snap model.Snapshot) {
	select {
	case s.ch <- snap:
		return
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	s.ch <- snap
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithHubLogger sets the logger for upstream failures.
func WithHubLogger(l *slog.Logger) HubOption {
	return func(h *Hub) { h.logger = l }
}

// WithRetryDelay sets the delay before re-subscribing upstream.
func WithRetryDelay(d time.Duration) HubOption {
	return func(h *Hub) { h.retry = d }
}

// NewHub creates a hub over upstream. Call Run to start delivering.
func NewHub(upstream Source, opts ...HubOption) *Hub {
	h := &Hub{
		upstream: upstream,
		logger:   slog.Default(),
		retry:    DefaultRetryDelay,
		subs:     make(map[*subscriber]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run keeps the upstream subscription alive until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	for {
		err := h.upstream.Subscribe(ctx, h.publish)
		if ctx.Err() != nil {
			return nil
		}
		h.logger.Error("collection subscription failed", "error", err, "retry_in", h.retry)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(h.retry):
		}
	}
}

func (h *Hub) publish(snap model.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest = snap
	h.hasLatest = true
	for s := range h.subs {
		s.offer(snap)
	}
}

// FetchOnce reads the current contents from the upstream source.
func (h *Hub) FetchOnce(ctx context.Context) (model.Snapshot, error) {
	return h.upstream.FetchOnce(ctx)
}

// Subscribe delivers the latest snapshot (if any has arrived) and every
// later one until ctx is done.
func (h *Hub) Subscribe(ctx context.Context, onChange func(model.Snapshot)) error {
	s := &subscriber{ch: make(chan model.Snapshot, 1)}

	h.mu.Lock()
	h.subs[s] = struct{}{}
	if h.hasLatest {
		s.offer(h.latest)
	}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.subs, s)
		h.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap := <-s.ch:
			onChange(snap)
		}
	}
}

// Subscribers returns the number of active subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
