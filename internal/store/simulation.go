package store

import (
	"database/sql"
	"fmt"
	"time"
)

// SimulationState is the per-owner decay clock.
type SimulationState struct {
	OwnerID            string
	StartCapacityKB    float64
	CurrentCapacityKB  float64
	CurrentYear        float64
	TotalYears         float64
	DecayPercent       float64
	DecayIntervalYears float64
	IsRunning          bool
	CreatedAt          int64
	UpdatedAt          int64
}

// ValuationWeights are the per-owner scoring weights as stored, not yet
// normalized.
type ValuationWeights struct {
	OwnerID            string
	Relevance          float64
	Uniqueness         float64
	Reconstructability float64
	UpdatedAt          int64
}

// GetSimulationState returns the owner's simulation state, or nil when the
// simulation was never initialized.
func (db *DB) GetSimulationState(ownerID string) (*SimulationState, error) {
	var st SimulationState
	var running int
	err := db.QueryRow(`
		SELECT owner_id, start_capacity_kb, current_capacity_kb, current_year,
			total_years, decay_percent, decay_interval_years, is_running,
			created_at, updated_at
		FROM simulation_state WHERE owner_id = ?
	`, ownerID).Scan(&st.OwnerID, &st.StartCapacityKB, &st.CurrentCapacityKB,
		&st.CurrentYear, &st.TotalYears, &st.DecayPercent, &st.DecayIntervalYears,
		&running, &st.CreatedAt, &st.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get simulation state: %w", err)
	}
	st.IsRunning = running != 0
	return &st, nil
}

// SaveSimulationState inserts or replaces the owner's simulation state.
func (db *DB) SaveSimulationState(st *SimulationState) error {
	now := time.Now().UnixMilli()
	if st.CreatedAt == 0 {
		st.CreatedAt = now
	}
	st.UpdatedAt = now
	running := 0
	if st.IsRunning {
		running = 1
	}
	_, err := db.Exec(`
		INSERT INTO simulation_state (owner_id, start_capacity_kb, current_capacity_kb,
			current_year, total_years, decay_percent, decay_interval_years, is_running,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id) DO UPDATE SET
			start_capacity_kb = excluded.start_capacity_kb,
			current_capacity_kb = excluded.current_capacity_kb,
			current_year = excluded.current_year,
			total_years = excluded.total_years,
			decay_percent = excluded.decay_percent,
			decay_interval_years = excluded.decay_interval_years,
			is_running = excluded.is_running,
			updated_at = excluded.updated_at
	`, st.OwnerID, st.StartCapacityKB, st.CurrentCapacityKB,
		st.CurrentYear, st.TotalYears, st.DecayPercent, st.DecayIntervalYears,
		running, st.CreatedAt, st.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save simulation state: %w", err)
	}
	return nil
}

// SetSimulationRunning flips only the is_running flag.
func (db *DB) SetSimulationRunning(ownerID string, running bool) error {
	v := 0
	if running {
		v = 1
	}
	_, err := db.Exec(`
		UPDATE simulation_state SET is_running = ?, updated_at = ? WHERE owner_id = ?
	`, v, time.Now().UnixMilli(), ownerID)
	if err != nil {
		return fmt.Errorf("set simulation running: %w", err)
	}
	return nil
}

// UpdateSimulationProgress advances the decay clock without touching the
// is_running flag, so a pause issued mid-cycle is not overwritten when the
// in-flight cycle commits.
func (db *DB) UpdateSimulationProgress(ownerID string, currentYear, currentCapacityKB float64) error {
	_, err := db.Exec(`
		UPDATE simulation_state SET current_year = ?, current_capacity_kb = ?, updated_at = ?
		WHERE owner_id = ?
	`, currentYear, currentCapacityKB, time.Now().UnixMilli(), ownerID)
	if err != nil {
		return fmt.Errorf("update simulation progress: %w", err)
	}
	return nil
}

// ListRunningOwners returns owners whose simulation was running when the
// process last stopped.
func (db *DB) ListRunningOwners() ([]string, error) {
	rows, err := db.Query("SELECT owner_id FROM simulation_state WHERE is_running = 1 ORDER BY owner_id")
	if err != nil {
		return nil, fmt.Errorf("list running owners: %w", err)
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, fmt.Errorf("scan running owner: %w", err)
		}
		owners = append(owners, owner)
	}
	return owners, rows.Err()
}

// DeleteSimulationState removes the owner's simulation row entirely.
func (db *DB) DeleteSimulationState(ownerID string) error {
	_, err := db.Exec("DELETE FROM simulation_state WHERE owner_id = ?", ownerID)
	if err != nil {
		return fmt.Errorf("delete simulation state: %w", err)
	}
	return nil
}

// GetValuationWeights returns the owner's stored weights, falling back to the
// equal-weight default when none were ever saved.
func (db *DB) GetValuationWeights(ownerID string) (*ValuationWeights, error) {
	var w ValuationWeights
	err := db.QueryRow(`
		SELECT owner_id, w_relevance, w_uniqueness, w_reconstructability, updated_at
		FROM valuation_weights WHERE owner_id = ?
	`, ownerID).Scan(&w.OwnerID, &w.Relevance, &w.Uniqueness, &w.Reconstructability, &w.UpdatedAt)
	if err == sql.ErrNoRows {
		return &ValuationWeights{
			OwnerID:            ownerID,
			Relevance:          1,
			Uniqueness:         1,
			Reconstructability: 1,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get valuation weights: %w", err)
	}
	return &w, nil
}

// SaveValuationWeights inserts or replaces the owner's weights.
func (db *DB) SaveValuationWeights(w *ValuationWeights) error {
	w.UpdatedAt = time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO valuation_weights (owner_id, w_relevance, w_uniqueness, w_reconstructability, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(owner_id) DO UPDATE SET
			w_relevance = excluded.w_relevance,
			w_uniqueness = excluded.w_uniqueness,
			w_reconstructability = excluded.w_reconstructability,
			updated_at = excluded.updated_at
	`, w.OwnerID, w.Relevance, w.Uniqueness, w.Reconstructability, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save valuation weights: %w", err)
	}
	return nil
}
