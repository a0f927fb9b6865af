package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Alert severities.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Alert types.
const (
	AlertStoragePressure  = "storage_pressure"
	AlertHighValueAtRisk  = "high_value_at_risk"
	AlertItemDeleted      = "item_deleted"
	AlertDecayApproaching = "decay_approaching"
)

// Alert is a persisted notification raised by the decay engine.
type Alert struct {
	ID        string
	OwnerID   string
	EventID   *int64
	ItemID    string
	Type      string
	Severity  string
	Message   string
	Read      bool
	CreatedAt int64
}

// CreateAlert persists an alert, assigning a uuid if needed.
func (db *DB) CreateAlert(a *Alert) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = time.Now().UnixMilli()
	read := 0
	if a.Read {
		read = 1
	}
	_, err := db.Exec(`
		INSERT INTO alerts (id, owner_id, event_id, item_id, alert_type, severity, message, read, created_at)
		VALUES (?, ?, ?, NULLIF(?, ''), ?, ?, ?, ?, ?)
	`, a.ID, a.OwnerID, a.EventID, a.ItemID, a.Type, a.Severity, a.Message, read, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create alert: %w", err)
	}
	return nil
}

// ListAlerts returns an owner's alerts newest first. When unreadOnly is set,
// acknowledged alerts are skipped.
func (db *DB) ListAlerts(ownerID string, unreadOnly bool, limit int) ([]Alert, error) {
	query := `
		SELECT id, owner_id, event_id, item_id, alert_type, severity, message, read, created_at
		FROM alerts WHERE owner_id = ?`
	if unreadOnly {
		query += " AND read = 0"
	}
	query += " ORDER BY created_at DESC, id LIMIT ?"

	rows, err := db.Query(query, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []Alert
	for rows.Next() {
		var a Alert
		var eventID sql.NullInt64
		var itemID sql.NullString
		var read int
		if err := rows.Scan(&a.ID, &a.OwnerID, &eventID, &itemID,
			&a.Type, &a.Severity, &a.Message, &read, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		if eventID.Valid {
			a.EventID = &eventID.Int64
		}
		a.ItemID = itemID.String
		a.Read = read != 0
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// MarkAlertRead acknowledges one alert. Returns false when the id is unknown
// for that owner.
func (db *DB) MarkAlertRead(ownerID, id string) (bool, error) {
	res, err := db.Exec(`
		UPDATE alerts SET read = 1 WHERE owner_id = ? AND id = ?
	`, ownerID, id)
	if err != nil {
		return false, fmt.Errorf("mark alert read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark alert read: %w", err)
	}
	return n > 0, nil
}

// CountUnreadAlerts returns the number of unacknowledged alerts for an owner.
func (db *DB) CountUnreadAlerts(ownerID string) (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM alerts WHERE owner_id = ? AND read = 0", ownerID).Scan(&count)
	return count, err
}
