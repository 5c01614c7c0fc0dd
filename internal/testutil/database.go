// Package testutil provides helpers for tests that need a real database.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/sentinel/internal/model"
	"github.com/Veraticus/sentinel/internal/storage"
)

// TestDBOptions seeds a test database.
type TestDBOptions struct {
	Preferences *model.Preferences
	CustomSetup func(context.Context, *storage.SQLiteStorage) error
	Rules       []model.ManualRule
}

// SetupTestDB creates a migrated in-memory SQLite database seeded from
// opts. It is closed when the test ends.
//
// Example:
//
//	db := testutil.SetupTestDB(t, testutil.TestDBOptions{
//		Preferences: &model.Preferences{BlockedSenders: []string{"uber.com"}},
//	})
func SetupTestDB(t testing.TB, opts TestDBOptions) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	if opts.Preferences != nil {
		if err := store.SavePreferences(ctx, *opts.Preferences); err != nil {
			t.Fatalf("failed to seed preferences: %v", err)
		}
	}

	for i := range opts.Rules {
		rule := opts.Rules[i]
		if err := store.CreateManualRule(ctx, &rule); err != nil {
			t.Fatalf("failed to seed rule %q: %v", rule.Name, err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return store
}
