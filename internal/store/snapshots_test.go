package store

import (
	"math/rand"
	"testing"
	"time"

	"github.com/noema-ai/noema/internal/memory"
	"github.com/noema-ai/noema/internal/state"
)

func testDocument(t *testing.T, agent string) *state.Document {
	t.Helper()
	sys := memory.NewSystem(agent, rand.New(rand.NewSource(5)))
	sys.Ingest("a small stored memory", "doc")
	return state.Export(sys, nil, nil)
}

func TestSnapshotRoundTrip(t *testing.T) {
	db := testDB(t)

	if err := db.SaveSnapshot(testDocument(t, "first")); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	doc, err := db.LoadLatestGood()
	if err != nil {
		t.Fatalf("LoadLatestGood: %v", err)
	}
	if doc == nil {
		t.Fatal("LoadLatestGood returned nil")
	}
	if doc.System.AgentName != "first" {
		t.Errorf("agent = %q, want first", doc.System.AgentName)
	}
}

func TestLoadLatestGoodEmpty(t *testing.T) {
	db := testDB(t)
	doc, err := db.LoadLatestGood()
	if err != nil {
		t.Fatalf("LoadLatestGood: %v", err)
	}
	if doc != nil {
		t.Error("expected nil document from empty store")
	}
}

func TestLoadLatestGoodSkipsCorrupt(t *testing.T) {
	db := testDB(t)

	if err := db.SaveSnapshot(testDocument(t, "good")); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	// Simulate a crash mid-write: a newer row holding a truncated
	// document.
	_, err := db.Exec(
		"INSERT INTO snapshots (version, created_at, document) VALUES (?, ?, ?)",
		state.Version, time.Now().UnixMilli()+1000, `{"version":2,"system":{"epis`,
	)
	if err != nil {
		t.Fatalf("insert corrupt snapshot: %v", err)
	}

	doc, err := db.LoadLatestGood()
	if err != nil {
		t.Fatalf("LoadLatestGood: %v", err)
	}
	if doc == nil || doc.System.AgentName != "good" {
		t.Error("did not fall back to last known good snapshot")
	}
}

func TestSnapshotPruning(t *testing.T) {
	db := testDB(t)
	for i := 0; i < keepSnapshots+5; i++ {
		if err := db.SaveSnapshot(testDocument(t, "agent")); err != nil {
			t.Fatalf("SaveSnapshot %d: %v", i, err)
		}
	}
	count, err := db.SnapshotCount()
	if err != nil {
		t.Fatalf("SnapshotCount: %v", err)
	}
	if count > keepSnapshots {
		t.Errorf("snapshots = %d, want at most %d", count, keepSnapshots)
	}
}

func TestInteractions(t *testing.T) {
	db := testDB(t)

	if err := db.RecordInteraction("post-1", "what is noema", "an engine"); err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}
	// Idempotent on duplicate post IDs.
	if err := db.RecordInteraction("post-1", "what is noema", "an engine"); err != nil {
		t.Fatalf("duplicate RecordInteraction: %v", err)
	}

	seen, err := db.SeenInteraction("post-1")
	if err != nil {
		t.Fatalf("SeenInteraction: %v", err)
	}
	if !seen {
		t.Error("post-1 should be seen")
	}
	if seen, _ = db.SeenInteraction("post-2"); seen {
		t.Error("post-2 should not be seen")
	}

	last, err := db.LastInteractionID()
	if err != nil {
		t.Fatalf("LastInteractionID: %v", err)
	}
	if last != "post-1" {
		t.Errorf("last = %q, want post-1", last)
	}
}
