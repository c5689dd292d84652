// Package projector turns collection snapshots and the current search and
// filter controls into the ordered card list shown on the listing page.
package projector

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/erazemk/najdeno/internal/model"
)

// Source delivers the contents of the item collection.
type Source interface {
	// FetchOnce returns the current contents of the collection.
	FetchOnce(ctx context.Context) (model.Snapshot, error)
	// Subscribe calls onChange with the complete contents once immediately
	// and again after every change, until ctx is done or the subscription
	// fails.
	Subscribe(ctx context.Context, onChange func(model.Snapshot)) error
}

// Display is the surface a projector renders into. Replace swaps the whole
// visible list for view.
type Display interface {
	Replace(ctx context.Context, view View) error
}

// Card is one materialized item as shown in the grid.
type Card struct {
	ID          string
	Name        string
	Description string
	Location    string
	Type        string
	Status      string
	ImageURL    string
	HasImage    bool
	Submitter   string
	Timestamp   int64
	Age         string
}

// View is the result of one render pass. Empty is set when the collection
// itself has no items; a non-empty collection whose items are all filtered
// out yields no cards but is not Empty.
type View struct {
	Empty    bool
	Cards    []Card
	Controls model.Controls
}

// Project returns the items of snap that pass controls, newest first.
// Items with equal timestamps are ordered by ID.
func Project(snap model.Snapshot, controls model.Controls) []model.Item {
	if len(snap) == 0 {
		return nil
	}

	items := make([]model.Item, 0, len(snap))
	for id, it := range snap {
		it.ID = id
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Timestamp != items[j].Timestamp {
			return items[i].Timestamp > items[j].Timestamp
		}
		return items[i].ID < items[j].ID
	})

	m := newMatcher(controls)
	kept := items[:0]
	for _, it := range items {
		if m.Match(it) {
			kept = append(kept, it)
		}
	}
	return kept
}

// Materialize builds one card per item, keeping the order of items.
func Materialize(items []model.Item, now time.Time) []Card {
	cards := make([]Card, 0, len(items))
	unix := now.Unix()
	for _, it := range items {
		c := Card{
			ID:          it.ID,
			Name:        it.ItemName,
			Description: it.Description,
			Location:    it.Location,
			Type:        it.ItemType,
			Status:      it.Status,
			HasImage:    it.HasImage(),
			Submitter:   it.TelegramUserID,
			Timestamp:   it.Timestamp,
			Age:         Humanize(it.Timestamp, unix),
		}
		if c.HasImage {
			c.ImageURL = *it.ImageURL
		}
		cards = append(cards, c)
	}
	return cards
}

// BuildView runs the whole projection for one snapshot.
func BuildView(snap model.Snapshot, controls model.Controls, now time.Time) View {
	controls = controls.Normalize()
	return View{
		Empty:    len(snap) == 0,
		Cards:    Materialize(Project(snap, controls), now),
		Controls: controls,
	}
}

// Option configures a Projector.
type Option func(*Projector)

// WithClock sets the time source used for relative ages.
func WithClock(now func() time.Time) Option {
	return func(p *Projector) { p.now = now }
}

// WithLogger sets the logger for render failures.
func WithLogger(l *slog.Logger) Option {
	return func(p *Projector) { p.logger = l }
}

// WithControls sets the initial controls.
func WithControls(c model.Controls) Option {
	return func(p *Projector) { p.controls = c.Normalize() }
}

// Projector renders a Source into a Display. It reacts to two triggers:
// collection changes pushed by the source, and control changes.
type Projector struct {
	source  Source
	display Display
	now     func() time.Time
	logger  *slog.Logger

	mu       sync.Mutex // guards controls
	controls model.Controls

	renderMu sync.Mutex // one Replace at a time
}

// New creates a projector with all filters set to "all" and no search term.
func New(source Source, display Display, opts ...Option) *Projector {
	p := &Projector{
		source:   source,
		display:  display,
		now:      time.Now,
		logger:   slog.Default(),
		controls: model.Controls{}.Normalize(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Controls returns the current control values.
func (p *Projector) Controls() model.Controls {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.controls
}

// Render projects snap through controls and replaces the display with the
// result.
func (p *Projector) Render(ctx context.Context, snap model.Snapshot, controls model.Controls) error {
	view := BuildView(snap, controls, p.now())

	p.renderMu.Lock()
	defer p.renderMu.Unlock()
	if err := p.display.Replace(ctx, view); err != nil {
		return fmt.Errorf("replacing display: %w", err)
	}
	return nil
}

// SetControls stores new control values, fetches the current contents of the
// collection once, and renders them. The previous snapshot is never reused.
func (p *Projector) SetControls(ctx context.Context, controls model.Controls) error {
	controls = controls.Normalize()
	p.mu.Lock()
	p.controls = controls
	p.mu.Unlock()

	snap, err := p.source.FetchOnce(ctx)
	if err != nil {
		return fmt.Errorf("fetching items: %w", err)
	}
	return p.Render(ctx, snap, controls)
}

// Run subscribes to the source and renders every delivered snapshot with the
// controls current at delivery time. It blocks until ctx is done or the
// subscription fails.
func (p *Projector) Run(ctx context.Context) error {
	err := p.source.Subscribe(ctx, func(snap model.Snapshot) {
		if err := p.Render(ctx, snap, p.Controls()); err != nil {
			p.logger.Error("failed to render pushed snapshot", "error", err)
		}
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("subscribing to items: %w", err)
	}
	return nil
}
