package engine

import (
	"fmt"

	"github.com/Bhuvan1326/The-Entropic-Archival-System/internal/store"
)

// Alert derivation is pure: each function returns the alert a situation
// warrants, or nil. The scheduler persists whatever comes back; a failed
// insert is logged and never fails the decay cycle.

// storagePressureAlert fires when usage exceeds 80% of the post-decay
// capacity, measured at the start of the cycle.
func storagePressureAlert(ownerID string, eventID int64, storageBeforeKB, capacityAfterKB float64) *store.Alert {
	if capacityAfterKB <= 0 {
		if storageBeforeKB <= 0 {
			return nil
		}
		return &store.Alert{
			OwnerID:  ownerID,
			EventID:  &eventID,
			Type:     store.AlertStoragePressure,
			Severity: store.SeverityCritical,
			Message:  fmt.Sprintf("storage %.0f KB with no capacity remaining", storageBeforeKB),
		}
	}

	ratio := storageBeforeKB / capacityAfterKB
	if ratio <= 0.8 {
		return nil
	}
	severity := store.SeverityWarning
	if ratio > 1.0 {
		severity = store.SeverityCritical
	}
	return &store.Alert{
		OwnerID:  ownerID,
		EventID:  &eventID,
		Type:     store.AlertStoragePressure,
		Severity: severity,
		Message:  fmt.Sprintf("storage at %.0f%% of capacity (%.0f of %.0f KB)", ratio*100, storageBeforeKB, capacityAfterKB),
	}
}

// transitionAlert fires for a single applied transition when the item is
// high-value (score >= 80) or was deleted. Deletion takes precedence over
// the at-risk type so a high-value deletion raises exactly one alert.
func transitionAlert(ownerID string, eventID int64, t *Transition) *store.Alert {
	deleted := t.NextStage == StageDeleted
	score := t.Item.SemanticScore

	if !deleted && score < 80 {
		return nil
	}

	alertType := store.AlertHighValueAtRisk
	message := fmt.Sprintf("high-value item %q (score %.1f) degraded to %s", t.Item.Title, score, t.NextStage)
	if deleted {
		alertType = store.AlertItemDeleted
		message = fmt.Sprintf("item %q (score %.1f) deleted, content discarded", t.Item.Title, score)
	}

	severity := store.SeverityWarning
	if (deleted && score >= 70) || (!deleted && score >= 80) {
		severity = store.SeverityCritical
	}

	return &store.Alert{
		OwnerID:  ownerID,
		EventID:  &eventID,
		ItemID:   t.Item.ID,
		Type:     alertType,
		Severity: severity,
		Message:  message,
	}
}

// decayApproachingAlert fires after a cycle when the next decay event is one
// or two simulated years out. Independent of any transition.
func decayApproachingAlert(ownerID string, st *store.SimulationState) *store.Alert {
	nextDecayIn := st.DecayIntervalYears
	if st.CurrentYear+nextDecayIn > st.TotalYears {
		return nil
	}
	if nextDecayIn != 1 && nextDecayIn != 2 {
		return nil
	}
	return &store.Alert{
		OwnerID:  ownerID,
		Type:     store.AlertDecayApproaching,
		Severity: store.SeverityInfo,
		Message:  fmt.Sprintf("next decay event in %.0f year(s), at year %.0f", nextDecayIn, st.CurrentYear+nextDecayIn),
	}
}
