package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "archive_items: archived units subject to degradation",
		SQL: `
CREATE TABLE archive_items (
    id             TEXT PRIMARY KEY,
    owner_id       TEXT NOT NULL,
    title          TEXT NOT NULL,
    content_type   TEXT NOT NULL DEFAULT 'note',
    tags           TEXT NOT NULL DEFAULT '',
    content        TEXT,
    summary        TEXT,
    minimal_json   TEXT,
    embedding      BLOB,

    stage          TEXT NOT NULL DEFAULT 'full'
                   CHECK (stage IN ('full', 'compressed', 'summarized', 'minimal', 'deleted')),
    original_size_kb REAL NOT NULL,
    current_size_kb  REAL NOT NULL,

    -- Valuation dimensions, each 0-100, produced externally
    val_relevance            REAL NOT NULL DEFAULT 50,
    val_uniqueness           REAL NOT NULL DEFAULT 50,
    val_reconstructability   REAL NOT NULL DEFAULT 50,
    val_reasoning            TEXT,
    semantic_score           REAL NOT NULL DEFAULT 50,
    analyzed_at              INTEGER,

    ingested_at    INTEGER NOT NULL,
    updated_at     INTEGER NOT NULL
);

CREATE INDEX idx_items_owner       ON archive_items(owner_id);
CREATE INDEX idx_items_owner_stage ON archive_items(owner_id, stage);
CREATE INDEX idx_items_score       ON archive_items(semantic_score);
`,
	},
	{
		Version:     2,
		Description: "simulation_state + valuation_weights: per-owner run state",
		SQL: `
CREATE TABLE simulation_state (
    owner_id             TEXT PRIMARY KEY,
    start_capacity_kb    REAL NOT NULL,
    current_capacity_kb  REAL NOT NULL,
    current_year         REAL NOT NULL DEFAULT 0,
    total_years          REAL NOT NULL,
    decay_percent        REAL NOT NULL,
    decay_interval_years REAL NOT NULL,
    is_running           INTEGER NOT NULL DEFAULT 0,
    created_at           INTEGER NOT NULL,
    updated_at           INTEGER NOT NULL
);

CREATE TABLE valuation_weights (
    owner_id               TEXT PRIMARY KEY,
    w_relevance            REAL NOT NULL DEFAULT 1,
    w_uniqueness           REAL NOT NULL DEFAULT 1,
    w_reconstructability   REAL NOT NULL DEFAULT 1,
    updated_at             INTEGER NOT NULL
);
`,
	},
	{
		Version:     3,
		Description: "decay_events + degradation_log: append-only audit trail",
		SQL: `
CREATE TABLE decay_events (
    id               INTEGER PRIMARY KEY,
    owner_id         TEXT NOT NULL,
    seq              INTEGER NOT NULL,
    year             REAL NOT NULL,
    capacity_before  REAL NOT NULL,
    capacity_after   REAL NOT NULL,
    storage_before   REAL NOT NULL,
    storage_after    REAL NOT NULL,
    items_affected   INTEGER NOT NULL DEFAULT 0,
    created_at       INTEGER NOT NULL,

    UNIQUE (owner_id, year)
);

CREATE INDEX idx_events_owner ON decay_events(owner_id, seq);

CREATE TABLE degradation_log (
    id              INTEGER PRIMARY KEY,
    event_id        INTEGER NOT NULL,
    item_id         TEXT NOT NULL,
    owner_id        TEXT NOT NULL,
    from_stage      TEXT NOT NULL,
    to_stage        TEXT NOT NULL,
    reason          TEXT NOT NULL,
    semantic_score  REAL NOT NULL,
    val_relevance   REAL NOT NULL,
    val_uniqueness  REAL NOT NULL,
    val_reconstructability REAL NOT NULL,
    size_before_kb  REAL NOT NULL,
    size_after_kb   REAL NOT NULL,
    created_at      INTEGER NOT NULL,

    FOREIGN KEY (event_id) REFERENCES decay_events(id) ON DELETE CASCADE
);

CREATE INDEX idx_log_event ON degradation_log(event_id);
CREATE INDEX idx_log_item  ON degradation_log(item_id);
`,
	},
	{
		Version:     4,
		Description: "alerts: derived notifications",
		SQL: `
CREATE TABLE alerts (
    id          TEXT PRIMARY KEY,
    owner_id    TEXT NOT NULL,
    event_id    INTEGER,
    item_id     TEXT,
    alert_type  TEXT NOT NULL
                CHECK (alert_type IN ('storage_pressure', 'high_value_at_risk', 'item_deleted', 'decay_approaching')),
    severity    TEXT NOT NULL CHECK (severity IN ('info', 'warning', 'critical')),
    message     TEXT NOT NULL,
    read        INTEGER NOT NULL DEFAULT 0,
    created_at  INTEGER NOT NULL
);

CREATE INDEX idx_alerts_owner ON alerts(owner_id, created_at DESC);
CREATE INDEX idx_alerts_read  ON alerts(owner_id, read);
`,
	},
	{
		Version:     5,
		Description: "baseline_results: strategy comparison snapshots",
		SQL: `
CREATE TABLE baseline_results (
    id                      INTEGER PRIMARY KEY,
    owner_id                TEXT NOT NULL,
    strategy                TEXT NOT NULL
                            CHECK (strategy IN ('semantic', 'time_based', 'random')),
    year                    INTEGER NOT NULL,
    knowledge_coverage      REAL NOT NULL,
    semantic_diversity      REAL NOT NULL,
    retrieval_quality       REAL NOT NULL,
    reconstruction_quality  REAL NOT NULL,
    storage_efficiency      REAL NOT NULL,
    items_remaining         INTEGER NOT NULL,
    total_size_kb           REAL NOT NULL,
    created_at              INTEGER NOT NULL,

    UNIQUE (owner_id, year, strategy)
);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
