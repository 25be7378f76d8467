package directory

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLiteRepository implements Repository over the employees/supervisors
// tables and their per-topic join tables.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository wraps db for directory lookups.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// EmployeesByTopic returns the emails of employees subscribed to topic.
func (r *SQLiteRepository) EmployeesByTopic(ctx context.Context, topic string) ([]string, error) {
	return r.emailsByTopic(ctx, `
		SELECT e.email
		FROM employees e
		JOIN employee_topics et ON et.employee_id = e.id
		WHERE et.topic = ?
		ORDER BY e.id
	`, topic)
}

// SupervisorsByTopic returns the emails of supervisors subscribed to topic.
func (r *SQLiteRepository) SupervisorsByTopic(ctx context.Context, topic string) ([]string, error) {
	return r.emailsByTopic(ctx, `
		SELECT s.email
		FROM supervisors s
		JOIN supervisor_topics st ON st.supervisor_id = s.id
		WHERE st.topic = ?
		ORDER BY s.id
	`, topic)
}

func (r *SQLiteRepository) emailsByTopic(ctx context.Context, query, topic string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, topic)
	if err != nil {
		return nil, fmt.Errorf("querying recipients: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scanning recipient row: %w", err)
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating recipients: %w", err)
	}
	return emails, nil
}
