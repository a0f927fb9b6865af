package engine

import (
	"errors"
	"fmt"
)

// Degradation stages, in lifecycle order. An item only ever moves forward
// through these; reset is a full-state restore, not a transition.
const (
	StageFull       = "full"
	StageCompressed = "compressed"
	StageSummarized = "summarized"
	StageMinimal    = "minimal"
	StageDeleted    = "deleted"
)

// ErrInvalidTransition is returned when a transition is requested from the
// terminal stage. Callers filter deleted items out first, so hitting this
// indicates a programming error.
var ErrInvalidTransition = errors.New("invalid stage transition")

// stageRank orders stages for monotonicity checks.
var stageRank = map[string]int{
	StageFull:       0,
	StageCompressed: 1,
	StageSummarized: 2,
	StageMinimal:    3,
	StageDeleted:    4,
}

// stageMultiplier is the size-retention factor applied to an item's current
// size when it leaves the keyed stage.
var stageMultiplier = map[string]float64{
	StageFull:       0.7,
	StageCompressed: 0.3,
	StageSummarized: 0.1,
	StageMinimal:    0,
}

// NextStage returns the stage after the given one and the size multiplier
// for the transition. The multiplier applies to the item's current size, not
// its original size, so successive transitions compound.
func NextStage(stage string) (string, float64, error) {
	switch stage {
	case StageFull:
		return StageCompressed, stageMultiplier[StageFull], nil
	case StageCompressed:
		return StageSummarized, stageMultiplier[StageCompressed], nil
	case StageSummarized:
		return StageMinimal, stageMultiplier[StageSummarized], nil
	case StageMinimal:
		return StageDeleted, stageMultiplier[StageMinimal], nil
	case StageDeleted:
		return "", 0, fmt.Errorf("from %s: %w", stage, ErrInvalidTransition)
	default:
		return "", 0, fmt.Errorf("unknown stage %q: %w", stage, ErrInvalidTransition)
	}
}

// StageRank returns the position of a stage in the lifecycle order, with
// unknown stages ranked before full.
func StageRank(stage string) int {
	if r, ok := stageRank[stage]; ok {
		return r
	}
	return -1
}

// ValidStage reports whether s names one of the five lifecycle stages.
func ValidStage(s string) bool {
	_, ok := stageRank[s]
	return ok
}
