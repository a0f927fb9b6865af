package engine

import (
	"errors"
	"testing"
)

func TestNextStage(t *testing.T) {
	tests := []struct {
		from     string
		wantNext string
		wantMult float64
	}{
		{StageFull, StageCompressed, 0.7},
		{StageCompressed, StageSummarized, 0.3},
		{StageSummarized, StageMinimal, 0.1},
		{StageMinimal, StageDeleted, 0},
	}

	for _, tt := range tests {
		t.Run(tt.from, func(t *testing.T) {
			next, mult, err := NextStage(tt.from)
			if err != nil {
				t.Fatalf("NextStage(%s): %v", tt.from, err)
			}
			if next != tt.wantNext {
				t.Errorf("next = %s, want %s", next, tt.wantNext)
			}
			if mult != tt.wantMult {
				t.Errorf("multiplier = %v, want %v", mult, tt.wantMult)
			}
		})
	}
}

func TestNextStageTerminal(t *testing.T) {
	_, _, err := NextStage(StageDeleted)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition from deleted, got %v", err)
	}
}

func TestNextStageUnknown(t *testing.T) {
	_, _, err := NextStage("archived")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition for unknown stage, got %v", err)
	}
}

// The multiplier applies to current size, so two transitions compound
// rather than both reading from the original size.
func TestMultipliersCompound(t *testing.T) {
	size := 1000.0
	stage := StageFull
	for stage != StageDeleted {
		next, mult, err := NextStage(stage)
		if err != nil {
			t.Fatalf("NextStage(%s): %v", stage, err)
		}
		size *= mult
		stage = next
	}
	if size != 0 {
		t.Errorf("terminal size = %v, want 0", size)
	}

	// One hop from full: exactly 70% of current.
	_, mult, _ := NextStage(StageFull)
	if got := 1000.0 * mult; got != 700 {
		t.Errorf("1000 KB after one transition = %v, want 700", got)
	}
}

func TestStageRankMonotonic(t *testing.T) {
	order := []string{StageFull, StageCompressed, StageSummarized, StageMinimal, StageDeleted}
	for i := 1; i < len(order); i++ {
		if StageRank(order[i]) <= StageRank(order[i-1]) {
			t.Errorf("rank(%s) = %d, not after rank(%s) = %d",
				order[i], StageRank(order[i]), order[i-1], StageRank(order[i-1]))
		}
	}
	if StageRank("bogus") != -1 {
		t.Errorf("rank(bogus) = %d, want -1", StageRank("bogus"))
	}
}

func TestValidStage(t *testing.T) {
	for _, s := range []string{StageFull, StageCompressed, StageSummarized, StageMinimal, StageDeleted} {
		if !ValidStage(s) {
			t.Errorf("ValidStage(%s) = false", s)
		}
	}
	if ValidStage("FULL") {
		t.Error("stages are lowercase; ValidStage(FULL) should be false")
	}
}
