package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS preferences (
					list TEXT NOT NULL,
					value TEXT NOT NULL,
					position INTEGER NOT NULL,
					PRIMARY KEY (list, value)
				)`,
				`CREATE TABLE IF NOT EXISTS manual_rules (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					sender_pattern TEXT NOT NULL DEFAULT '',
					subject_pattern TEXT NOT NULL DEFAULT '',
					priority INTEGER NOT NULL DEFAULT 10,
					is_active BOOLEAN NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE TABLE IF NOT EXISTS processed_ledger (
					seq INTEGER PRIMARY KEY AUTOINCREMENT,
					namespace TEXT NOT NULL,
					message_id TEXT NOT NULL,
					processed_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE (namespace, message_id)
				)`,
				`CREATE TABLE IF NOT EXISTS activity_log (
					id TEXT PRIMARY KEY,
					message_id TEXT NOT NULL DEFAULT '',
					subject TEXT NOT NULL,
					sender TEXT NOT NULL,
					action TEXT NOT NULL,
					category TEXT NOT NULL DEFAULT '',
					reason TEXT NOT NULL DEFAULT '',
					amount REAL,
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_activity_created_at ON activity_log(created_at)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Add forward target and purpose to manual rules",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`ALTER TABLE manual_rules ADD COLUMN forward_to TEXT NOT NULL DEFAULT ''`,
				`ALTER TABLE manual_rules ADD COLUMN purpose TEXT NOT NULL DEFAULT ''`,
			)
		},
	},
	{
		Version:     3,
		Description: "Add source channel and pause flag",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`ALTER TABLE activity_log ADD COLUMN source TEXT NOT NULL DEFAULT ''`,
				`CREATE INDEX idx_activity_action ON activity_log(action)`,
				`CREATE TABLE IF NOT EXISTS settings (
					key TEXT PRIMARY KEY,
					value TEXT NOT NULL
				)`,
			)
		},
	},
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion returns the current PRAGMA user_version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return v, nil
}
