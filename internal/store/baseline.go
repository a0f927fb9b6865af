package store

import (
	"fmt"
	"time"
)

// Baseline strategies.
const (
	StrategySemantic  = "semantic"
	StrategyTimeBased = "time_based"
	StrategyRandom    = "random"
)

// BaselineResult is one (strategy, year) sample of a baseline comparison run.
type BaselineResult struct {
	ID                    int64
	OwnerID               string
	Strategy              string
	Year                  int
	KnowledgeCoverage     float64
	SemanticDiversity     float64
	RetrievalQuality      float64
	ReconstructionQuality float64
	StorageEfficiency     float64
	ItemsRemaining        int
	TotalSizeKB           float64
	CreatedAt             int64
}

// SaveBaselineResults replaces the owner's baseline rows with a freshly
// computed set. Runs are recomputed wholesale, never merged.
func (db *DB) SaveBaselineResults(ownerID string, results []BaselineResult) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("save baseline results: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM baseline_results WHERE owner_id = ?", ownerID); err != nil {
		return fmt.Errorf("save baseline results: clear: %w", err)
	}

	now := time.Now().UnixMilli()
	stmt, err := tx.Prepare(`
		INSERT INTO baseline_results (owner_id, strategy, year,
			knowledge_coverage, semantic_diversity, retrieval_quality,
			reconstruction_quality, storage_efficiency,
			items_remaining, total_size_kb, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("save baseline results: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		if _, err := stmt.Exec(ownerID, r.Strategy, r.Year,
			r.KnowledgeCoverage, r.SemanticDiversity, r.RetrievalQuality,
			r.ReconstructionQuality, r.StorageEfficiency,
			r.ItemsRemaining, r.TotalSizeKB, now); err != nil {
			return fmt.Errorf("save baseline results: insert: %w", err)
		}
	}
	return tx.Commit()
}

// ListBaselineResults returns all samples for an owner ordered by strategy
// then year.
func (db *DB) ListBaselineResults(ownerID string) ([]BaselineResult, error) {
	rows, err := db.Query(`
		SELECT id, owner_id, strategy, year,
			knowledge_coverage, semantic_diversity, retrieval_quality,
			reconstruction_quality, storage_efficiency,
			items_remaining, total_size_kb, created_at
		FROM baseline_results WHERE owner_id = ?
		ORDER BY strategy, year
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list baseline results: %w", err)
	}
	defer rows.Close()

	var results []BaselineResult
	for rows.Next() {
		var r BaselineResult
		if err := rows.Scan(&r.ID, &r.OwnerID, &r.Strategy, &r.Year,
			&r.KnowledgeCoverage, &r.SemanticDiversity, &r.RetrievalQuality,
			&r.ReconstructionQuality, &r.StorageEfficiency,
			&r.ItemsRemaining, &r.TotalSizeKB, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan baseline result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// DeleteBaselineResults removes all baseline rows for an owner.
func (db *DB) DeleteBaselineResults(ownerID string) error {
	_, err := db.Exec("DELETE FROM baseline_results WHERE owner_id = ?", ownerID)
	if err != nil {
		return fmt.Errorf("delete baseline results: %w", err)
	}
	return nil
}
