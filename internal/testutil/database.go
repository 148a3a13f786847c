package testutil

import (
	"testing"

	"cbhands/internal/db"
)

// SetupTestDB creates a migrated in-memory journal database for testing.
func SetupTestDB(t *testing.T) *db.DB {
	t.Helper()

	// A single connection keeps every query on the same in-memory database.
	database, err := db.New(&db.Config{
		Driver:       "sqlite3",
		DSN:          ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	if err := database.Migrate(); err != nil {
		database.Close()
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		database.Close()
	})
	return database
}
