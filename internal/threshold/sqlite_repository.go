package threshold

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLiteRepository implements Repository over the threshold_levels table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository wraps db for threshold config storage.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// LoadThresholds returns topic's configured levels, or an empty Config if
// none are defined.
func (r *SQLiteRepository) LoadThresholds(ctx context.Context, topic string) (Config, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT color, value, reset_value
		FROM threshold_levels
		WHERE topic = ?
		ORDER BY id
	`, topic)
	if err != nil {
		return nil, fmt.Errorf("querying thresholds: %w", err)
	}
	defer rows.Close()

	var levels Config
	for rows.Next() {
		var l Level
		if err := rows.Scan(&l.Color, &l.Value, &l.ResetValue); err != nil {
			return nil, fmt.Errorf("scanning threshold row: %w", err)
		}
		levels = append(levels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating thresholds: %w", err)
	}
	return levels, nil
}

// UpsertThresholds replaces topic's entire ladder with newLevels.
func (r *SQLiteRepository) UpsertThresholds(ctx context.Context, topic string, newLevels Config) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning threshold update: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM threshold_levels WHERE topic = ?", topic); err != nil {
		return fmt.Errorf("clearing existing thresholds: %w", err)
	}

	for _, l := range newLevels {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO threshold_levels (topic, color, value, reset_value)
			VALUES (?, ?, ?, ?)
		`, topic, l.Color, l.Value, l.ResetValue); err != nil {
			return fmt.Errorf("inserting threshold level %+v: %w", l, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing threshold update: %w", err)
	}
	return nil
}
