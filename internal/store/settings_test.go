package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/erazemk/najdeno/internal/db"
)

func TestGetRevision_StartsAtZeroAndIncrements(t *testing.T) {
	database, err := db.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()
	database.SetMaxOpenConns(1)

	if err := db.Migrate(database); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()

	rev, err := GetRevision(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if rev != 0 {
		t.Fatalf("expected revision 0, got %d", rev)
	}

	for i := 1; i <= 3; i++ {
		if err := PutItem(ctx, database, "a", json.RawMessage(`{}`)); err != nil {
			t.Fatal(err)
		}
		rev, err = GetRevision(ctx, database)
		if err != nil {
			t.Fatal(err)
		}
		if rev != int64(i) {
			t.Fatalf("expected revision %d, got %d", i, rev)
		}
	}
}

func TestGetRevision_SchemaWithoutMigrations(t *testing.T) {
	database, err := db.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()
	database.SetMaxOpenConns(1)

	if err := db.EnsureSchema(database); err != nil {
		t.Fatal(err)
	}

	rev, err := GetRevision(context.Background(), database)
	if err != nil {
		t.Fatal(err)
	}
	if rev != 0 {
		t.Fatalf("expected revision 0 without a row, got %d", rev)
	}
}
