package storage

import (
	"context"
	"testing"
)

func TestMigrateIsIdempotent(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Second migrate failed: %v", err)
	}

	version, err := store.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("Failed to read schema version: %v", err)
	}
	if version != ExpectedSchemaVersion {
		t.Errorf("schema version = %d, want %d", version, ExpectedSchemaVersion)
	}
}

func TestMigrationsCreateIndexes(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	for _, name := range []string{"idx_activity_created_at", "idx_activity_action"} {
		var count int
		err := store.db.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name=?", name).Scan(&count)
		if err != nil {
			t.Fatalf("Failed to check index: %v", err)
		}
		if count != 1 {
			t.Errorf("index %s was not created", name)
		}
	}
}

func TestMigrationVersionsAreSequential(t *testing.T) {
	for i, m := range migrations {
		if m.Version != i+1 {
			t.Errorf("migration %d has version %d", i, m.Version)
		}
	}
	if last := migrations[len(migrations)-1].Version; last != ExpectedSchemaVersion {
		t.Errorf("last migration = %d, ExpectedSchemaVersion = %d", last, ExpectedSchemaVersion)
	}
}
