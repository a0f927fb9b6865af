package engine

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/bus"
	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/store"
)

func TestIngestItemDerivesSize(t *testing.T) {
	db := testDB(t)
	e := testEngine(t, db, SimulationDefaults{})

	item := &store.Item{
		OwnerID: "owner",
		Title:   "field notes",
		Content: strings.Repeat("x", 2048),
	}
	if err := e.IngestItem(item); err != nil {
		t.Fatalf("IngestItem: %v", err)
	}

	got, err := db.GetItem("owner", item.ID)
	if err != nil || got == nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got.Stage != StageFull {
		t.Errorf("stage = %q, want full", got.Stage)
	}
	if got.OriginalSizeKB != 2 {
		t.Errorf("original size = %v, want 2 (derived from content)", got.OriginalSizeKB)
	}
	if got.CurrentSizeKB != got.OriginalSizeKB {
		t.Errorf("current size = %v, want %v", got.CurrentSizeKB, got.OriginalSizeKB)
	}
}

func TestIngestItemValidation(t *testing.T) {
	db := testDB(t)
	e := testEngine(t, db, SimulationDefaults{})

	if err := e.IngestItem(&store.Item{Title: "no owner"}); err == nil {
		t.Error("expected error for missing owner")
	}
	if err := e.IngestItem(&store.Item{OwnerID: "owner", Title: "   "}); err == nil {
		t.Error("expected error for blank title")
	}
}

func TestDeleteItemTombstone(t *testing.T) {
	db := testDB(t)
	e := testEngine(t, db, SimulationDefaults{})
	seedItem(t, db, "owner", "itm-1", 100, 50)

	if err := e.DeleteItem("owner", "itm-1"); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}

	got, err := db.GetItem("owner", "itm-1")
	if err != nil || got == nil {
		t.Fatalf("GetItem after delete: %v", err)
	}
	if got.Stage != StageDeleted {
		t.Errorf("stage = %q, want deleted", got.Stage)
	}
	if got.CurrentSizeKB != 0 {
		t.Errorf("current size = %v, want 0", got.CurrentSizeKB)
	}
	if got.Content != "" {
		t.Errorf("content survived deletion: %q", got.Content)
	}

	// Deleting a tombstone is a no-op.
	if err := e.DeleteItem("owner", "itm-1"); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestDeleteItemNotFound(t *testing.T) {
	db := testDB(t)
	e := testEngine(t, db, SimulationDefaults{})

	err := e.DeleteItem("owner", "missing")
	if !errors.Is(err, ErrItemNotFound) {
		t.Errorf("error = %v, want ErrItemNotFound", err)
	}
}

func TestDeleteItemPublishesTransition(t *testing.T) {
	db := testDB(t)
	eb := bus.New()
	e := New(db, nil, eb, SimulationDefaults{})
	t.Cleanup(e.Stop)
	seedItem(t, db, "owner", "itm-1", 100, 50)

	ch, cancel := eb.Subscribe(4)
	defer cancel()

	if err := e.DeleteItem("owner", "itm-1"); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}

	select {
	case ev := <-ch:
		if ev.Type != bus.TypeItemTransitioned {
			t.Errorf("event type = %q, want %q", ev.Type, bus.TypeItemTransitioned)
		}
		if ev.Stage != StageDeleted {
			t.Errorf("event stage = %q, want deleted", ev.Stage)
		}
		if ev.ItemID != "itm-1" {
			t.Errorf("event item = %q, want itm-1", ev.ItemID)
		}
	case <-time.After(time.Second):
		t.Fatal("no transition event published")
	}
}

func TestStatusSummarizesArchive(t *testing.T) {
	db := testDB(t)
	e := testEngine(t, db, SimulationDefaults{StartCapacityKB: 1000})
	seedItem(t, db, "owner", "itm-1", 100, 50)
	seedItem(t, db, "owner", "itm-2", 50, 50)

	st, err := e.Status("owner")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.State != nil {
		t.Error("expected nil state before the simulation is initialized")
	}
	if st.TotalItems != 2 || st.ActiveItems != 2 {
		t.Errorf("items = %d/%d, want 2/2", st.ActiveItems, st.TotalItems)
	}
	if st.StorageKB != 150 {
		t.Errorf("storage = %v, want 150", st.StorageKB)
	}

	if _, err := e.InitSimulation("owner"); err != nil {
		t.Fatalf("InitSimulation: %v", err)
	}
	if err := e.DeleteItem("owner", "itm-2"); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}

	st, err = e.Status("owner")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.State == nil || st.State.CurrentCapacityKB != 1000 {
		t.Errorf("state = %+v, want initialized at capacity 1000", st.State)
	}
	if st.TotalItems != 2 || st.ActiveItems != 1 {
		t.Errorf("items = %d/%d after delete, want 1/2", st.ActiveItems, st.TotalItems)
	}
	if st.StorageKB != 100 {
		t.Errorf("storage = %v after delete, want 100", st.StorageKB)
	}
}
