package db

import (
	"testing"

	"github.com/powerbrief-dev/powerbrief/internal/config"
)

// SetupTestDatabase points DB at a fresh in-memory sqlite database with the
// full schema and restores the previous handle when the test ends.
func SetupTestDatabase(t testing.TB) {
	t.Helper()

	previous := DB

	if err := ConnectDatabase(config.DatabaseSettings{Type: config.SqliteDbType}); err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := MigrateDatabase(); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		_ = CloseDatabase()
		DB = previous
	})
}
