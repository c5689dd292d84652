package collection

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/erazemk/najdeno/internal/model"
)

// collector records delivered snapshots.
type collector struct {
	mu    sync.Mutex
	snaps []model.Snapshot
}

func (c *collector) add(snap model.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snaps = append(c.snaps, snap)
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.snaps)
}

func (c *collector) get(i int) model.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snaps[i]
}

// waitFor polls until cond holds or fails the test after two seconds.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestMemoryFetchOnceReturnsCopy(t *testing.T) {
	m := NewMemory(model.Snapshot{"a": {ItemName: "Wallet"}})

	snap, err := m.FetchOnce(context.Background())
	if err != nil {
		t.Fatalf("FetchOnce: %v", err)
	}
	delete(snap, "a")

	again, _ := m.FetchOnce(context.Background())
	if len(again) != 1 {
		t.Error("expected caller changes not to affect the collection")
	}
}

func TestMemorySubscribe(t *testing.T) {
	m := NewMemory(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &collector{}
	done := make(chan error, 1)
	go func() { done <- m.Subscribe(ctx, c.add) }()

	waitFor(t, "initial delivery", func() bool { return c.len() == 1 })
	if len(c.get(0)) != 0 {
		t.Errorf("expected empty initial snapshot, got %v", c.get(0))
	}

	m.Put(model.Item{ID: "a", ItemName: "Wallet"})
	m.Put(model.Item{ID: "b", ItemName: "Phone"})
	m.Delete("a")

	waitFor(t, "three changes", func() bool { return c.len() == 4 })
	last := c.get(3)
	if len(last) != 1 || last["b"].ItemName != "Phone" {
		t.Errorf("unexpected final snapshot: %v", last)
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestMemorySetReplacesContents(t *testing.T) {
	m := NewMemory(model.Snapshot{"a": {}})
	m.Set(model.Snapshot{"b": {}, "c": {}})

	snap, _ := m.FetchOnce(context.Background())
	if _, ok := snap["a"]; ok || len(snap) != 2 {
		t.Errorf("expected contents replaced, got %v", snap)
	}
}

func TestMemoryFetchOnceCanceled(t *testing.T) {
	m := NewMemory(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := m.FetchOnce(ctx); err == nil {
		t.Error("expected error for canceled context")
	}
}
