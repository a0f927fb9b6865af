package store

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Item represents one archived unit subject to degradation.
type Item struct {
	ID          string
	OwnerID     string
	Title       string
	ContentType string
	Tags        string
	Content     string
	Summary     string
	MinimalJSON string
	Embedding   []float64 // opaque vector from the valuation service, never searched

	Stage          string
	OriginalSizeKB float64
	CurrentSizeKB  float64

	ValRelevance          float64
	ValUniqueness         float64
	ValReconstructability float64
	ValReasoning          string
	SemanticScore         float64
	AnalyzedAt            *int64

	IngestedAt int64
	UpdatedAt  int64
}

const itemColumns = `id, owner_id, title, content_type, tags, content, summary, minimal_json, embedding,
	stage, original_size_kb, current_size_kb,
	val_relevance, val_uniqueness, val_reconstructability, val_reasoning, semantic_score, analyzed_at,
	ingested_at, updated_at`

// encodeEmbedding converts a []float64 to a binary BLOB (8 bytes per float64).
func encodeEmbedding(vec []float64) []byte {
	if len(vec) == 0 {
		return nil
	}
	buf := make([]byte, len(vec)*8)
	for i, v := range vec {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// decodeEmbedding converts a binary BLOB back to []float64.
func decodeEmbedding(buf []byte) []float64 {
	if len(buf) < 8 {
		return nil
	}
	n := len(buf) / 8
	vec := make([]float64, n)
	for i := 0; i < n; i++ {
		vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return vec
}

// CreateItem inserts a new archive item at stage=full with neutral scores.
// Assigns a uuid if the item has no ID yet.
func (db *DB) CreateItem(item *Item) error {
	now := time.Now().UnixMilli()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Stage == "" {
		item.Stage = "full"
	}
	if item.CurrentSizeKB == 0 {
		item.CurrentSizeKB = item.OriginalSizeKB
	}
	if item.ValRelevance == 0 && item.ValUniqueness == 0 && item.ValReconstructability == 0 {
		item.ValRelevance, item.ValUniqueness, item.ValReconstructability = 50, 50, 50
	}
	if item.SemanticScore == 0 {
		item.SemanticScore = (item.ValRelevance + item.ValUniqueness + item.ValReconstructability) / 3
	}
	if item.IngestedAt == 0 {
		item.IngestedAt = now
	}
	item.UpdatedAt = now

	_, err := db.Exec(`
		INSERT INTO archive_items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), ?,
			?, ?, ?,
			?, ?, ?, NULLIF(?, ''), ?, ?,
			?, ?)
	`, item.ID, item.OwnerID, item.Title, item.ContentType, item.Tags,
		item.Content, item.Summary, item.MinimalJSON, encodeEmbedding(item.Embedding),
		item.Stage, item.OriginalSizeKB, item.CurrentSizeKB,
		item.ValRelevance, item.ValUniqueness, item.ValReconstructability,
		item.ValReasoning, item.SemanticScore, item.AnalyzedAt,
		item.IngestedAt, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create item: %w", err)
	}
	return nil
}

// GetItem returns an item by owner and id, or nil if not found.
func (db *DB) GetItem(ownerID, id string) (*Item, error) {
	row := db.QueryRow(`
		SELECT `+itemColumns+` FROM archive_items WHERE owner_id = ? AND id = ?
	`, ownerID, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// ListActiveItems returns all non-deleted items for an owner.
func (db *DB) ListActiveItems(ownerID string) ([]Item, error) {
	rows, err := db.Query(`
		SELECT `+itemColumns+` FROM archive_items
		WHERE owner_id = ? AND stage != 'deleted'
		ORDER BY semantic_score, current_size_kb, id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list active items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// ListItems returns all items for an owner, tombstones included.
func (db *DB) ListItems(ownerID string) ([]Item, error) {
	rows, err := db.Query(`
		SELECT `+itemColumns+` FROM archive_items
		WHERE owner_id = ?
		ORDER BY ingested_at DESC, id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// ApplyTransition moves an item to a new stage and size. When the new stage
// is deleted, the content and derived fields are cleared and size forced to 0.
func (db *DB) ApplyTransition(id, newStage string, newSizeKB float64) error {
	now := time.Now().UnixMilli()
	var err error
	if newStage == "deleted" {
		_, err = db.Exec(`
			UPDATE archive_items
			SET stage = ?, current_size_kb = 0, content = NULL, summary = NULL,
				minimal_json = NULL, embedding = NULL, updated_at = ?
			WHERE id = ?
		`, newStage, now, id)
	} else {
		_, err = db.Exec(`
			UPDATE archive_items SET stage = ?, current_size_kb = ?, updated_at = ?
			WHERE id = ?
		`, newStage, newSizeKB, now, id)
	}
	if err != nil {
		return fmt.Errorf("apply transition: %w", err)
	}
	return nil
}

// UpdateItemScores stores the result of an external valuation call.
func (db *DB) UpdateItemScores(id string, rel, uniq, recon float64, reasoning string, semantic float64, embedding []float64) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		UPDATE archive_items
		SET val_relevance = ?, val_uniqueness = ?, val_reconstructability = ?,
			val_reasoning = NULLIF(?, ''), semantic_score = ?,
			embedding = COALESCE(?, embedding), analyzed_at = ?, updated_at = ?
		WHERE id = ?
	`, rel, uniq, recon, reasoning, semantic, encodeEmbedding(embedding), now, now, id)
	if err != nil {
		return fmt.Errorf("update item scores: %w", err)
	}
	return nil
}

// UpdateItemDerived stores externally produced degraded content. Empty
// arguments leave the existing column untouched.
func (db *DB) UpdateItemDerived(id, summary, minimalJSON string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		UPDATE archive_items
		SET summary = COALESCE(NULLIF(?, ''), summary),
			minimal_json = COALESCE(NULLIF(?, ''), minimal_json),
			updated_at = ?
		WHERE id = ?
	`, summary, minimalJSON, now, id)
	if err != nil {
		return fmt.Errorf("update item derived: %w", err)
	}
	return nil
}

// RecomputeSemanticScores rewrites semantic_score for every item of an owner
// from the stored dimension scores and the given normalized weights.
func (db *DB) RecomputeSemanticScores(ownerID string, wRel, wUniq, wRecon float64) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		UPDATE archive_items
		SET semantic_score = val_relevance * ? + val_uniqueness * ? + val_reconstructability * ?,
			updated_at = ?
		WHERE owner_id = ?
	`, wRel, wUniq, wRecon, now, ownerID)
	if err != nil {
		return fmt.Errorf("recompute semantic scores: %w", err)
	}
	return nil
}

// ListUnanalyzedItems returns non-deleted items that have never been through
// an external valuation call.
func (db *DB) ListUnanalyzedItems(ownerID string, limit int) ([]Item, error) {
	rows, err := db.Query(`
		SELECT `+itemColumns+` FROM archive_items
		WHERE owner_id = ? AND stage != 'deleted' AND analyzed_at IS NULL
		ORDER BY ingested_at LIMIT ?
	`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list unanalyzed items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// RestoreItems puts every item of an owner back to stage=full at its original
// size and clears derived content. Content already discarded by deletion is
// not resurrected. Used only by simulation reset.
func (db *DB) RestoreItems(ownerID string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		UPDATE archive_items
		SET stage = 'full', current_size_kb = original_size_kb,
			summary = NULL, minimal_json = NULL, updated_at = ?
		WHERE owner_id = ?
	`, now, ownerID)
	if err != nil {
		return fmt.Errorf("restore items: %w", err)
	}
	return nil
}

// CountItems returns the number of items for an owner, tombstones included.
func (db *DB) CountItems(ownerID string) (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM archive_items WHERE owner_id = ?", ownerID).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*Item, error) {
	var it Item
	var content, summary, minimalJSON, reasoning sql.NullString
	var embedding []byte
	var analyzedAt sql.NullInt64
	err := row.Scan(&it.ID, &it.OwnerID, &it.Title, &it.ContentType, &it.Tags,
		&content, &summary, &minimalJSON, &embedding,
		&it.Stage, &it.OriginalSizeKB, &it.CurrentSizeKB,
		&it.ValRelevance, &it.ValUniqueness, &it.ValReconstructability,
		&reasoning, &it.SemanticScore, &analyzedAt,
		&it.IngestedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	it.Content = content.String
	it.Summary = summary.String
	it.MinimalJSON = minimalJSON.String
	it.ValReasoning = reasoning.String
	it.Embedding = decodeEmbedding(embedding)
	if analyzedAt.Valid {
		it.AnalyzedAt = &analyzedAt.Int64
	}
	return &it, nil
}

func scanItems(rows *sql.Rows) ([]Item, error) {
	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}
