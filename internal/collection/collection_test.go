package collection

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/erazemk/najdeno/internal/model"
)

func TestWatchDeliversOnlyChanges(t *testing.T) {
	calls := 0
	check := func(ctx context.Context) (model.Snapshot, bool, error) {
		calls++
		switch calls {
		case 1:
			return model.Snapshot{"a": {}}, true, nil
		case 3:
			return model.Snapshot{"a": {}, "b": {}}, true, nil
		default:
			return nil, false, nil
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &collector{}
	done := make(chan error, 1)
	go func() { done <- watch(ctx, time.Millisecond, check, c.add) }()

	waitFor(t, "two deliveries", func() bool { return c.len() == 2 })
	cancel()
	<-done

	if len(c.get(1)) != 2 {
		t.Errorf("unexpected second snapshot: %v", c.get(1))
	}
}

func TestWatchStopsOnError(t *testing.T) {
	calls := 0
	check := func(ctx context.Context) (model.Snapshot, bool, error) {
		calls++
		if calls == 2 {
			return nil, false, errors.New("timeout")
		}
		return nil, true, nil
	}

	err := watch(context.Background(), time.Millisecond, check, func(model.Snapshot) {})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestWatchInitialError(t *testing.T) {
	check := func(ctx context.Context) (model.Snapshot, bool, error) {
		return nil, false, errors.New("permission denied")
	}
	delivered := false
	err := watch(context.Background(), time.Millisecond, check, func(model.Snapshot) { delivered = true })
	if err == nil || delivered {
		t.Errorf("expected error and no delivery, got err=%v delivered=%v", err, delivered)
	}
}

func TestRawRecords(t *testing.T) {
	if raw := rawRecords(map[string]string{}); raw != nil {
		t.Errorf("expected nil for empty hash, got %v", raw)
	}

	raw := rawRecords(map[string]string{"a": `{"item_name":"Wallet"}`, "b": `not json`})
	snap, skipped, _ := model.DecodeRecords(raw)
	if snap["a"].ItemName != "Wallet" {
		t.Errorf("unexpected item a: %+v", snap["a"])
	}
	if len(skipped) != 1 || skipped[0] != "b" {
		t.Errorf("expected 'b' skipped, got %v", skipped)
	}
}

func TestRedisImportRejectsInvalid(t *testing.T) {
	r := NewRedis(nil, "", nil)
	if r.ChangeChannel() != DefaultPath+":changed" {
		t.Errorf("unexpected change channel %q", r.ChangeChannel())
	}

	_, err := r.Import(context.Background(), map[string]json.RawMessage{"a": json.RawMessage(`{oops`)}, false)
	if err == nil {
		t.Error("expected error for invalid record")
	}
}

func TestNewFirebaseRequiresURL(t *testing.T) {
	if _, err := NewFirebase(context.Background(), FirebaseConfig{}, nil); err == nil {
		t.Error("expected error without database URL")
	}
}
