package engine

import (
	"testing"

	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/store"
)

func TestStoragePressureAlert(t *testing.T) {
	tests := []struct {
		name         string
		storage      float64
		capacity     float64
		wantSeverity string // "" means no alert
	}{
		{"well under", 500, 1000, ""},
		{"at threshold", 800, 1000, ""},
		{"above threshold", 900, 1000, store.SeverityWarning},
		{"over capacity", 1200, 1000, store.SeverityCritical},
		{"exactly full", 1000, 1000, store.SeverityWarning},
		{"no capacity left", 100, 0, store.SeverityCritical},
		{"empty and no capacity", 0, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := storagePressureAlert("owner", 7, tt.storage, tt.capacity)
			if tt.wantSeverity == "" {
				if a != nil {
					t.Fatalf("expected no alert, got %+v", a)
				}
				return
			}
			if a == nil {
				t.Fatal("expected an alert")
			}
			if a.Type != store.AlertStoragePressure {
				t.Errorf("type = %s, want storage_pressure", a.Type)
			}
			if a.Severity != tt.wantSeverity {
				t.Errorf("severity = %s, want %s", a.Severity, tt.wantSeverity)
			}
			if a.EventID == nil || *a.EventID != 7 {
				t.Error("alert should reference the decay event")
			}
		})
	}
}

func TestTransitionAlert(t *testing.T) {
	tr := func(score float64, next string) *Transition {
		return &Transition{
			Item:      store.Item{ID: "it", Title: "t", SemanticScore: score, Stage: StageMinimal},
			NextStage: next,
		}
	}

	tests := []struct {
		name         string
		score        float64
		next         string
		wantType     string // "" means no alert
		wantSeverity string
	}{
		{"low value degraded", 50, StageCompressed, "", ""},
		{"just under threshold", 79.9, StageSummarized, "", ""},
		{"high value at risk", 80, StageSummarized, store.AlertHighValueAtRisk, store.SeverityCritical},
		{"low value deleted", 40, StageDeleted, store.AlertItemDeleted, store.SeverityWarning},
		{"mid value deleted", 70, StageDeleted, store.AlertItemDeleted, store.SeverityCritical},
		{"high value deleted", 85, StageDeleted, store.AlertItemDeleted, store.SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := transitionAlert("owner", 3, tr(tt.score, tt.next))
			if tt.wantType == "" {
				if a != nil {
					t.Fatalf("expected no alert, got %+v", a)
				}
				return
			}
			if a == nil {
				t.Fatal("expected an alert")
			}
			if a.Type != tt.wantType {
				t.Errorf("type = %s, want %s", a.Type, tt.wantType)
			}
			if a.Severity != tt.wantSeverity {
				t.Errorf("severity = %s, want %s", a.Severity, tt.wantSeverity)
			}
			if a.ItemID != "it" {
				t.Errorf("item id = %s, want it", a.ItemID)
			}
		})
	}
}

// A high-value deletion raises one alert, typed item_deleted: the deletion
// type takes precedence over at-risk so the same transition never produces
// two alerts.
func TestDeletionPrecedence(t *testing.T) {
	a := transitionAlert("owner", 1, &Transition{
		Item:      store.Item{ID: "x", Title: "vault", SemanticScore: 85, Stage: StageMinimal},
		NextStage: StageDeleted,
	})
	if a == nil {
		t.Fatal("expected an alert")
	}
	if a.Type != store.AlertItemDeleted {
		t.Errorf("type = %s, want item_deleted", a.Type)
	}
	if a.Severity != store.SeverityCritical {
		t.Errorf("severity = %s, want critical", a.Severity)
	}
}

func TestDecayApproachingAlert(t *testing.T) {
	st := func(current, total, interval float64) *store.SimulationState {
		return &store.SimulationState{
			OwnerID:            "owner",
			CurrentYear:        current,
			TotalYears:         total,
			DecayIntervalYears: interval,
		}
	}

	if a := decayApproachingAlert("owner", st(10, 60, 2)); a == nil {
		t.Error("2-year interval mid-simulation should warn of the next event")
	} else {
		if a.Type != store.AlertDecayApproaching {
			t.Errorf("type = %s, want decay_approaching", a.Type)
		}
		if a.Severity != store.SeverityInfo {
			t.Errorf("severity = %s, want info", a.Severity)
		}
	}

	if a := decayApproachingAlert("owner", st(59, 60, 1)); a == nil {
		t.Error("1-year interval with one event left should still alert")
	}
	if a := decayApproachingAlert("owner", st(60, 60, 2)); a != nil {
		t.Errorf("past the horizon there is no next event, got %+v", a)
	}
	if a := decayApproachingAlert("owner", st(10, 60, 5)); a != nil {
		t.Errorf("5-year interval is not imminent, got %+v", a)
	}
}
