package directory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/wardenmq/warden-core/internal/infrastructure/database"
	_ "github.com/wardenmq/warden-core/migrations"
)

func openMigratedTestDB(t *testing.T) *database.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "warden.db")
	db, err := database.Open(database.Config{Path: path, BusyTimeout: 5})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteRepositoryEmployeesByTopic(t *testing.T) {
	db := openMigratedTestDB(t)
	ctx := context.Background()

	res, err := db.ExecContext(ctx, "INSERT INTO employees (email) VALUES (?)", "alice@example.com")
	if err != nil {
		t.Fatalf("insert employee: %v", err)
	}
	employeeID, _ := res.LastInsertId()
	if _, err := db.ExecContext(ctx,
		"INSERT INTO employee_topics (employee_id, topic) VALUES (?, ?)", employeeID, "sensors/a"); err != nil {
		t.Fatalf("insert employee_topics: %v", err)
	}

	repo := NewSQLiteRepository(db.DB)
	emails, err := repo.EmployeesByTopic(ctx, "sensors/a")
	if err != nil {
		t.Fatalf("EmployeesByTopic() error = %v", err)
	}
	if len(emails) != 1 || emails[0] != "alice@example.com" {
		t.Fatalf("EmployeesByTopic() = %v, want [alice@example.com]", emails)
	}
}

func TestSQLiteRepositorySupervisorsByTopicEmpty(t *testing.T) {
	db := openMigratedTestDB(t)
	repo := NewSQLiteRepository(db.DB)

	emails, err := repo.SupervisorsByTopic(context.Background(), "sensors/nonexistent")
	if err != nil {
		t.Fatalf("SupervisorsByTopic() error = %v", err)
	}
	if len(emails) != 0 {
		t.Fatalf("SupervisorsByTopic() = %v, want empty", emails)
	}
}
