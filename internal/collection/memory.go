package collection

import (
	"context"
	"maps"
	"sync"

	"github.com/erazemk/najdeno/internal/model"
)

// Memory is an in-process collection. Writes notify subscribers
// synchronously, in order.
type Memory struct {
	deliverMu sync.Mutex // serializes callbacks

	mu   sync.Mutex
	snap model.Snapshot
	subs map[int]func(model.Snapshot)
	next int
}

// NewMemory creates a collection holding snap.
func NewMemory(snap model.Snapshot) *Memory {
	return &Memory{
		snap: maps.Clone(snap),
		subs: make(map[int]func(model.Snapshot)),
	}
}

// FetchOnce returns a copy of the current contents.
func (m *Memory) FetchOnce(ctx context.Context) (model.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.snap), nil
}

// Subscribe delivers the current contents, then every write, until ctx is
// done. onChange must not write to m.
func (m *Memory) Subscribe(ctx context.Context, onChange func(model.Snapshot)) error {
	m.deliverMu.Lock()
	m.mu.Lock()
	id := m.next
	m.next++
	m.subs[id] = onChange
	current := maps.Clone(m.snap)
	m.mu.Unlock()
	onChange(current)
	m.deliverMu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}()

	<-ctx.Done()
	return ctx.Err()
}

// Set replaces the whole contents.
func (m *Memory) Set(snap model.Snapshot) {
	m.update(func(model.Snapshot) model.Snapshot { return maps.Clone(snap) })
}

// Put creates or replaces one item.
func (m *Memory) Put(it model.Item) {
	m.update(func(cur model.Snapshot) model.Snapshot {
		next := maps.Clone(cur)
		if next == nil {
			next = make(model.Snapshot)
		}
		next[it.ID] = it
		return next
	})
}

// Delete removes one item.
func (m *Memory) Delete(id string) {
	m.update(func(cur model.Snapshot) model.Snapshot {
		next := maps.Clone(cur)
		delete(next, id)
		return next
	})
}

func (m *Memory) update(fn func(model.Snapshot) model.Snapshot) {
	m.deliverMu.Lock()
	defer m.deliverMu.Unlock()

	m.mu.Lock()
	m.snap = fn(m.snap)
	current := m.snap
	subs := make([]func(model.Snapshot), 0, len(m.subs))
	for _, s := range m.subs {
		subs = append(subs, s)
	}
	m.mu.Unlock()

	for _, s := range subs {
		s(maps.Clone(current))
	}
}
