package store

import (
	"testing"
)

func TestGetSimulationStateNotFound(t *testing.T) {
	db := testDB(t)

	st, err := db.GetSimulationState("owner-1")
	if err != nil {
		t.Fatalf("GetSimulationState: %v", err)
	}
	if st != nil {
		t.Error("expected nil for uninitialized simulation")
	}
}

func TestSaveAndGetSimulationState(t *testing.T) {
	db := testDB(t)

	st := &SimulationState{
		OwnerID:            "owner-1",
		StartCapacityKB:    1000000,
		CurrentCapacityKB:  1000000,
		TotalYears:         60,
		DecayPercent:       5,
		DecayIntervalYears: 2,
		IsRunning:          true,
	}
	if err := db.SaveSimulationState(st); err != nil {
		t.Fatalf("SaveSimulationState: %v", err)
	}

	found, err := db.GetSimulationState("owner-1")
	if err != nil {
		t.Fatalf("GetSimulationState: %v", err)
	}
	if found == nil {
		t.Fatal("expected state, got nil")
	}
	if found.StartCapacityKB != 1000000 {
		t.Errorf("start_capacity_kb = %f, want 1000000", found.StartCapacityKB)
	}
	if !found.IsRunning {
		t.Error("expected is_running true")
	}
	if found.CurrentYear != 0 {
		t.Errorf("current_year = %f, want 0", found.CurrentYear)
	}
}

func TestSaveSimulationStateUpsert(t *testing.T) {
	db := testDB(t)

	st := &SimulationState{OwnerID: "owner-1", StartCapacityKB: 1000, CurrentCapacityKB: 1000, TotalYears: 10, DecayPercent: 5, DecayIntervalYears: 2}
	db.SaveSimulationState(st)

	st.CurrentCapacityKB = 950
	st.CurrentYear = 2
	if err := db.SaveSimulationState(st); err != nil {
		t.Fatalf("second SaveSimulationState: %v", err)
	}

	found, _ := db.GetSimulationState("owner-1")
	if found.CurrentCapacityKB != 950 {
		t.Errorf("current_capacity_kb = %f, want 950", found.CurrentCapacityKB)
	}
	if found.CurrentYear != 2 {
		t.Errorf("current_year = %f, want 2", found.CurrentYear)
	}
}

func TestSetSimulationRunning(t *testing.T) {
	db := testDB(t)

	st := &SimulationState{OwnerID: "owner-1", StartCapacityKB: 1000, CurrentCapacityKB: 1000, TotalYears: 10, DecayPercent: 5, DecayIntervalYears: 2, IsRunning: true}
	db.SaveSimulationState(st)

	if err := db.SetSimulationRunning("owner-1", false); err != nil {
		t.Fatalf("SetSimulationRunning: %v", err)
	}

	found, _ := db.GetSimulationState("owner-1")
	if found.IsRunning {
		t.Error("expected is_running false")
	}
}

func TestDeleteSimulationState(t *testing.T) {
	db := testDB(t)

	st := &SimulationState{OwnerID: "owner-1", StartCapacityKB: 1000, CurrentCapacityKB: 1000, TotalYears: 10, DecayPercent: 5, DecayIntervalYears: 2}
	db.SaveSimulationState(st)

	if err := db.DeleteSimulationState("owner-1"); err != nil {
		t.Fatalf("DeleteSimulationState: %v", err)
	}
	found, _ := db.GetSimulationState("owner-1")
	if found != nil {
		t.Error("expected nil after delete")
	}
}

func TestGetValuationWeightsDefault(t *testing.T) {
	db := testDB(t)

	w, err := db.GetValuationWeights("owner-1")
	if err != nil {
		t.Fatalf("GetValuationWeights: %v", err)
	}
	if w.Relevance != 1 || w.Uniqueness != 1 || w.Reconstructability != 1 {
		t.Errorf("default weights = (%f, %f, %f), want (1, 1, 1)",
			w.Relevance, w.Uniqueness, w.Reconstructability)
	}
}

func TestSaveValuationWeights(t *testing.T) {
	db := testDB(t)

	w := &ValuationWeights{OwnerID: "owner-1", Relevance: 2, Uniqueness: 1, Reconstructability: 1}
	if err := db.SaveValuationWeights(w); err != nil {
		t.Fatalf("SaveValuationWeights: %v", err)
	}

	found, _ := db.GetValuationWeights("owner-1")
	if found.Relevance != 2 {
		t.Errorf("relevance weight = %f, want 2", found.Relevance)
	}

	// Upsert
	w.Uniqueness = 3
	if err := db.SaveValuationWeights(w); err != nil {
		t.Fatalf("second SaveValuationWeights: %v", err)
	}
	found, _ = db.GetValuationWeights("owner-1")
	if found.Uniqueness != 3 {
		t.Errorf("uniqueness weight = %f, want 3", found.Uniqueness)
	}
}
