package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// SQLiteRepository implements BulkAppendSamples over the topic_documents
// table, storing each topic's sample history as a JSON array column.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository wraps db for sample persistence.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// BulkAppendSamples appends records to topic's document, creating the
// document if it does not yet exist.
func (r *SQLiteRepository) BulkAppendSamples(ctx context.Context, topic string, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning sample append: %w", err)
	}
	defer tx.Rollback()

	var existingJSON sql.NullString
	err = tx.QueryRowContext(ctx,
		"SELECT samples_json FROM topic_documents WHERE topic = ?", topic).Scan(&existingJSON)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("loading existing samples for %q: %w", topic, err)
	}

	var existing []Record
	if existingJSON.Valid && existingJSON.String != "" {
		if err := json.Unmarshal([]byte(existingJSON.String), &existing); err != nil {
			return fmt.Errorf("decoding existing samples for %q: %w", topic, err)
		}
	}

	merged, err := json.Marshal(append(existing, records...))
	if err != nil {
		return fmt.Errorf("encoding samples for %q: %w", topic, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO topic_documents (topic, samples_json, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(topic) DO UPDATE SET samples_json = excluded.samples_json, updated_at = excluded.updated_at
	`, topic, string(merged))
	if err != nil {
		return fmt.Errorf("upserting samples for %q: %w", topic, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing sample append for %q: %w", topic, err)
	}
	return nil
}
