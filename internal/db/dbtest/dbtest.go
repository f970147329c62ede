// Package dbtest opens migrated in-memory sqlite databases for tests.
package dbtest

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"lifeai-backend/internal/db"
)

// New returns a fresh migrated database that is closed when the test ends.
func New(t testing.TB) *sql.DB {
	t.Helper()

	dbx, err := db.Connect("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = dbx.Close() })

	if err := db.Migrate(context.Background(), dbx, "sqlite"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return dbx
}

// CreateUser inserts a user row and returns its id.
func CreateUser(t testing.TB, dbx *sql.DB, username string) int64 {
	t.Helper()

	var id int64
	err := dbx.QueryRow(`
		INSERT INTO users (username, email, password, created_at)
		VALUES ($1, $2, 'x', $3)
		RETURNING id
	`, username, username+"@example.com", db.Timestamp(time.Now())).Scan(&id)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return id
}
