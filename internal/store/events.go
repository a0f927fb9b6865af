package store

import (
	"database/sql"
	"fmt"
	"time"
)

// DecayEvent is one completed (or in-flight) decay cycle.
type DecayEvent struct {
	ID             int64
	OwnerID        string
	Seq            int64
	Year           float64
	CapacityBefore float64
	CapacityAfter  float64
	StorageBefore  float64
	StorageAfter   float64
	ItemsAffected  int
	CreatedAt      int64
}

// DegradationLogEntry records one item transition inside a decay event.
type DegradationLogEntry struct {
	ID            int64
	EventID       int64
	ItemID        string
	OwnerID       string
	FromStage     string
	ToStage       string
	Reason        string
	SemanticScore float64
	ValRelevance  float64
	ValUniqueness float64
	ValRecon      float64
	SizeBeforeKB  float64
	SizeAfterKB   float64
	CreatedAt     int64
}

// UpsertDecayEvent records a cycle keyed by (owner, year). A retried cycle
// for the same simulated year replaces the earlier row instead of appending,
// which keeps event history idempotent across restarts.
func (db *DB) UpsertDecayEvent(ev *DecayEvent) error {
	now := time.Now().UnixMilli()

	var existingID int64
	err := db.QueryRow(`
		SELECT id FROM decay_events WHERE owner_id = ? AND year = ?
	`, ev.OwnerID, ev.Year).Scan(&existingID)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("upsert decay event: %w", err)
	}

	if err == nil {
		ev.ID = existingID
		ev.CreatedAt = now
		_, err = db.Exec(`
			UPDATE decay_events
			SET seq = ?, capacity_before = ?, capacity_after = ?,
				storage_before = ?, storage_after = ?, items_affected = ?, created_at = ?
			WHERE id = ?
		`, ev.Seq, ev.CapacityBefore, ev.CapacityAfter,
			ev.StorageBefore, ev.StorageAfter, ev.ItemsAffected, now, existingID)
		if err != nil {
			return fmt.Errorf("upsert decay event: %w", err)
		}
		if _, err := db.Exec("DELETE FROM degradation_log WHERE event_id = ?", existingID); err != nil {
			return fmt.Errorf("upsert decay event: clear log: %w", err)
		}
		return nil
	}

	ev.CreatedAt = now
	res, err := db.Exec(`
		INSERT INTO decay_events (owner_id, seq, year, capacity_before, capacity_after,
			storage_before, storage_after, items_affected, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ev.OwnerID, ev.Seq, ev.Year, ev.CapacityBefore, ev.CapacityAfter,
		ev.StorageBefore, ev.StorageAfter, ev.ItemsAffected, now)
	if err != nil {
		return fmt.Errorf("upsert decay event: %w", err)
	}
	ev.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("upsert decay event: %w", err)
	}
	return nil
}

// UpdateDecayEventTotals writes the post-cycle storage total and affected count.
func (db *DB) UpdateDecayEventTotals(eventID int64, storageAfter float64, itemsAffected int) error {
	_, err := db.Exec(`
		UPDATE decay_events SET storage_after = ?, items_affected = ? WHERE id = ?
	`, storageAfter, itemsAffected, eventID)
	if err != nil {
		return fmt.Errorf("update decay event totals: %w", err)
	}
	return nil
}

// GetDecayEvent returns one event by id, or nil if not found.
func (db *DB) GetDecayEvent(id int64) (*DecayEvent, error) {
	row := db.QueryRow(`
		SELECT id, owner_id, seq, year, capacity_before, capacity_after,
			storage_before, storage_after, items_affected, created_at
		FROM decay_events WHERE id = ?
	`, id)
	ev, err := scanDecayEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get decay event: %w", err)
	}
	return ev, nil
}

// ListDecayEvents returns an owner's events newest first.
func (db *DB) ListDecayEvents(ownerID string, limit int) ([]DecayEvent, error) {
	rows, err := db.Query(`
		SELECT id, owner_id, seq, year, capacity_before, capacity_after,
			storage_before, storage_after, items_affected, created_at
		FROM decay_events WHERE owner_id = ?
		ORDER BY year DESC LIMIT ?
	`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list decay events: %w", err)
	}
	defer rows.Close()

	var events []DecayEvent
	for rows.Next() {
		ev, err := scanDecayEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan decay event: %w", err)
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

// CountDecayEvents returns the number of recorded cycles for an owner.
func (db *DB) CountDecayEvents(ownerID string) (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM decay_events WHERE owner_id = ?", ownerID).Scan(&count)
	return count, err
}

// DeleteDecayEvents removes all events and their log entries for an owner.
// The log is cleared explicitly rather than via the FK cascade, which only
// fires on connections that ran the foreign_keys pragma.
func (db *DB) DeleteDecayEvents(ownerID string) error {
	if _, err := db.Exec("DELETE FROM degradation_log WHERE owner_id = ?", ownerID); err != nil {
		return fmt.Errorf("delete degradation log: %w", err)
	}
	_, err := db.Exec("DELETE FROM decay_events WHERE owner_id = ?", ownerID)
	if err != nil {
		return fmt.Errorf("delete decay events: %w", err)
	}
	return nil
}

// AppendDegradationLog records one item transition under an event.
func (db *DB) AppendDegradationLog(e *DegradationLogEntry) error {
	e.CreatedAt = time.Now().UnixMilli()
	res, err := db.Exec(`
		INSERT INTO degradation_log (event_id, item_id, owner_id, from_stage, to_stage,
			reason, semantic_score, val_relevance, val_uniqueness, val_reconstructability,
			size_before_kb, size_after_kb, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.EventID, e.ItemID, e.OwnerID, e.FromStage, e.ToStage,
		e.Reason, e.SemanticScore, e.ValRelevance, e.ValUniqueness, e.ValRecon,
		e.SizeBeforeKB, e.SizeAfterKB, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("append degradation log: %w", err)
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("append degradation log: %w", err)
	}
	return nil
}

// ListDegradationLog returns the transitions recorded under one event, in
// application order.
func (db *DB) ListDegradationLog(eventID int64) ([]DegradationLogEntry, error) {
	rows, err := db.Query(`
		SELECT id, event_id, item_id, owner_id, from_stage, to_stage,
			reason, semantic_score, val_relevance, val_uniqueness, val_reconstructability,
			size_before_kb, size_after_kb, created_at
		FROM degradation_log WHERE event_id = ? ORDER BY id
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list degradation log: %w", err)
	}
	defer rows.Close()

	var entries []DegradationLogEntry
	for rows.Next() {
		var e DegradationLogEntry
		if err := rows.Scan(&e.ID, &e.EventID, &e.ItemID, &e.OwnerID, &e.FromStage, &e.ToStage,
			&e.Reason, &e.SemanticScore, &e.ValRelevance, &e.ValUniqueness, &e.ValRecon,
			&e.SizeBeforeKB, &e.SizeAfterKB, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan degradation log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListItemHistory returns every transition an item has gone through, oldest
// first.
func (db *DB) ListItemHistory(ownerID, itemID string) ([]DegradationLogEntry, error) {
	rows, err := db.Query(`
		SELECT id, event_id, item_id, owner_id, from_stage, to_stage,
			reason, semantic_score, val_relevance, val_uniqueness, val_reconstructability,
			size_before_kb, size_after_kb, created_at
		FROM degradation_log WHERE owner_id = ? AND item_id = ? ORDER BY id
	`, ownerID, itemID)
	if err != nil {
		return nil, fmt.Errorf("list item history: %w", err)
	}
	defer rows.Close()

	var entries []DegradationLogEntry
	for rows.Next() {
		var e DegradationLogEntry
		if err := rows.Scan(&e.ID, &e.EventID, &e.ItemID, &e.OwnerID, &e.FromStage, &e.ToStage,
			&e.Reason, &e.SemanticScore, &e.ValRelevance, &e.ValUniqueness, &e.ValRecon,
			&e.SizeBeforeKB, &e.SizeAfterKB, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan item history: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanDecayEvent(row rowScanner) (*DecayEvent, error) {
	var ev DecayEvent
	err := row.Scan(&ev.ID, &ev.OwnerID, &ev.Seq, &ev.Year,
		&ev.CapacityBefore, &ev.CapacityAfter,
		&ev.StorageBefore, &ev.StorageAfter, &ev.ItemsAffected, &ev.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}
