package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erazemk/najdeno/internal/collection"
	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/store"
)

var testNow = time.Unix(1_700_000_000, 0)

func fixedNow() time.Time { return testNow }

// listedItem mirrors the JSON shape of one /api/items element.
type listedItem struct {
	ID       string `json:"id"`
	ItemName string `json:"item_name"`
	ItemType string `json:"item_type"`
	Status   string `json:"status"`
	Age      string `json:"age"`
}

func testSnapshot() model.Snapshot {
	ts := testNow.Unix()
	return model.Snapshot{
		"a": {ItemName: "Blue wallet", ItemType: model.ItemTypeLost, Status: model.ItemStatusOpen, Location: "Library", Timestamp: ts - 30},
		"b": {ItemName: "Keys", ItemType: model.ItemTypeFound, Status: model.ItemStatusOpen, Location: "Gym", Timestamp: ts - 7200},
		"c": {ItemName: "Umbrella", ItemType: model.ItemTypeFound, Status: model.ItemStatusClosed, Location: "Library", Timestamp: ts - 3 * 86400},
	}
}

func setupTestServer(t *testing.T, source collection.Source) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(NewRouter(source, []string{"https://example.org"}, fixedNow))
	t.Cleanup(server.Close)
	return server
}

func getItems(t *testing.T, url string) []listedItem {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}

	var items []listedItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return items
}

func TestHealthEndpoint(t *testing.T) {
	server := setupTestServer(t, collection.NewMemory(nil))

	resp, err := http.Get(server.URL + "/api/health")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Errorf("unexpected health response: %d %v", resp.StatusCode, body)
	}
}

func TestListItemsOrderAndAge(t *testing.T) {
	server := setupTestServer(t, collection.NewMemory(testSnapshot()))

	items := getItems(t, server.URL+"/api/items")
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}

	wantIDs := []string{"a", "b", "c"}
	wantAges := []string{"Just now", "2 hours ago", "3 days ago"}
	for i, it := range items {
		if it.ID != wantIDs[i] {
			t.Errorf("item %d: expected id %q, got %q", i, wantIDs[i], it.ID)
		}
		if it.Age != wantAges[i] {
			t.Errorf("item %d: expected age %q, got %q", i, wantAges[i], it.Age)
		}
	}
}

func TestListItemsFilters(t *testing.T) {
	server := setupTestServer(t, collection.NewMemory(testSnapshot()))

	items := getItems(t, server.URL+"/api/items?q=library&type=found")
	if len(items) != 1 || items[0].ID != "c" {
		t.Errorf("expected only c, got %+v", items)
	}

	items = getItems(t, server.URL+"/api/items?status=open&type=all")
	if len(items) != 2 {
		t.Errorf("expected 2 open items, got %d", len(items))
	}
}

func TestListItemsEmpty(t *testing.T) {
	server := setupTestServer(t, collection.NewMemory(nil))

	resp, err := http.Get(server.URL + "/api/items")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	var raw json.RawMessage
	json.NewDecoder(resp.Body).Decode(&raw)
	if string(raw) != "[]" {
		t.Errorf("expected empty array, got %s", raw)
	}
}

type failingSource struct{}

func (failingSource) FetchOnce(ctx context.Context) (model.Snapshot, error) {
	return nil, errors.New("unavailable")
}

func (failingSource) Subscribe(ctx context.Context, onChange func(model.Snapshot)) error {
	return errors.New("unavailable")
}

func TestListItemsFetchError(t *testing.T) {
	server := setupTestServer(t, failingSource{})

	resp, err := http.Get(server.URL + "/api/items")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", resp.StatusCode)
	}
}

func TestListItemsFromSQLite(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	record := json.RawMessage(`{"item_name":"Scarf","item_type":"lost","status":"open","timestamp":1699999000}`)
	if err := store.PutItem(ctx, database, "s1", record); err != nil {
		t.Fatalf("put item: %v", err)
	}

	server := setupTestServer(t, collection.NewSQLite(database, time.Second, nil))

	items := getItems(t, server.URL+"/api/items")
	if len(items) != 1 || items[0].ID != "s1" || items[0].ItemName != "Scarf" {
		t.Fatalf("unexpected items: %+v", items)
	}
	if items[0].Age != "16 minutes ago" {
		t.Errorf("expected 16 minutes ago, got %q", items[0].Age)
	}
}

func TestCORS(t *testing.T) {
	server := setupTestServer(t, collection.NewMemory(nil))

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/api/items", nil)
	req.Header.Set("Origin", "https://example.org")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://example.org" {
		t.Errorf("expected allowed origin echoed, got %q", got)
	}

	req, _ = http.NewRequest(http.MethodGet, server.URL+"/api/items", nil)
	req.Header.Set("Origin", "https://evil.example")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no CORS header for unknown origin, got %q", got)
	}
}

func TestLoggingMiddlewareRecordsStatus(t *testing.T) {
	var seen int
	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		seen = w.(*statusRecorder).status
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusTeapot || seen != http.StatusTeapot {
		t.Errorf("expected 418 recorded, got %d / %d", rec.Code, seen)
	}
	if _, ok := any(&statusRecorder{}).(http.Hijacker); !ok {
		t.Error("statusRecorder must implement http.Hijacker")
	}
}
