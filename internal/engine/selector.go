package engine

import (
	"fmt"
	"sort"

	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/store"
)

// Transition is one planned stage advance for an item, produced by
// SelectTransitions and applied by the scheduler.
type Transition struct {
	Item      store.Item
	NextStage string
	NewSizeKB float64
	Reason    string
}

// SelectTransitions picks the ordered set of single-stage advances needed to
// bring storage usage down to the target capacity. Lowest-value items degrade
// first: eligible items are sorted ascending by semantic score, with ties
// broken by current size and then id so the order is deterministic.
//
// Each item advances at most one stage per call. When every eligible item has
// been advanced once and the target is still not met, the partial result is
// returned as-is; the remaining pressure carries over to the next decay
// event. That paces degradation across cycles instead of collapsing an
// archive in one step.
func SelectTransitions(items []store.Item, currentStorageKB, targetCapacityKB float64) []Transition {
	if currentStorageKB <= targetCapacityKB {
		return nil
	}

	eligible := make([]store.Item, 0, len(items))
	for _, it := range items {
		if it.Stage != StageDeleted {
			eligible = append(eligible, it)
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	sort.Slice(eligible, func(i, j int) bool {
		a, b := &eligible[i], &eligible[j]
		if a.SemanticScore != b.SemanticScore {
			return a.SemanticScore < b.SemanticScore
		}
		if a.CurrentSizeKB != b.CurrentSizeKB {
			return a.CurrentSizeKB < b.CurrentSizeKB
		}
		return a.ID < b.ID
	})

	// A non-positive target can never be satisfied; degrade everything one
	// stage rather than stopping at an unreachable goal.
	degradeAll := targetCapacityKB <= 0

	var selected []Transition
	running := currentStorageKB
	for i := range eligible {
		if !degradeAll && running <= targetCapacityKB {
			break
		}
		it := eligible[i]

		nextStage, mult, err := NextStage(it.Stage)
		if err != nil {
			continue
		}
		newSize := it.CurrentSizeKB * mult

		selected = append(selected, Transition{
			Item:      it,
			NextStage: nextStage,
			NewSizeKB: newSize,
			Reason:    transitionReason(running, targetCapacityKB, &it),
		})
		running -= it.CurrentSizeKB - newSize
	}
	return selected
}

func transitionReason(runningKB, targetKB float64, it *store.Item) string {
	if targetKB <= 0 {
		return fmt.Sprintf("no capacity remains: score %.1f, reconstructability %.0f",
			it.SemanticScore, it.ValReconstructability)
	}
	pct := runningKB / targetKB * 100
	return fmt.Sprintf("storage at %.0f%% of capacity: score %.1f, reconstructability %.0f",
		pct, it.SemanticScore, it.ValReconstructability)
}
