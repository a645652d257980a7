package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/database"
)

var testDB *database.DB

// TestMain rebuilds the schema from migrations/ on the database named by
// TEST_DATABASE_URL. Without it the package is skipped.
func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		fmt.Println("TEST_DATABASE_URL not set, skipping postgres repository tests")
		os.Exit(0)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.NewPostgreSQLDB(ctx, dsn, database.PoolOptions{MaxConns: 4, MinConns: 1})
	if err != nil {
		fmt.Println("failed to connect to test database:", err)
		os.Exit(1)
	}
	if err := resetSchema(ctx, db); err != nil {
		fmt.Println("failed to prepare schema:", err)
		db.Close()
		os.Exit(1)
	}

	testDB = db
	code := m.Run()
	db.Close()
	os.Exit(code)
}

func resetSchema(ctx context.Context, db *database.DB) error {
	if _, err := db.Exec(ctx, `DROP SCHEMA public CASCADE; CREATE SCHEMA public;`); err != nil {
		return err
	}
	files, err := filepath.Glob(filepath.Join("..", "..", "..", "..", "migrations", "*.sql"))
	if err != nil {
		return err
	}
	for _, f := range files {
		sql, err := os.ReadFile(f)
		if err != nil {
			return err
		}
		if _, err := db.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(f), err)
		}
	}
	return nil
}

// truncate clears every table between tests
func truncate(t *testing.T) {
	t.Helper()
	_, err := testDB.Exec(context.Background(), `
		TRUNCATE TABLE notifications, deleted_records, audit_logs, marketplace_orders, marketplace_items,
			salary_adjustments, leave_requests, pending_attendances, attendance_logs, employees, company_policies
		CASCADE`)
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
}
