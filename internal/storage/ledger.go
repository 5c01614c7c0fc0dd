package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// LoadLedger returns the processed ids of a namespace, oldest first.
func (s *SQLiteStorage) LoadLedger(ctx context.Context, namespace string) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(namespace, "namespace"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT message_id FROM processed_ledger WHERE namespace = ? ORDER BY seq ASC", namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger: %w", err)
	}
	return ids, nil
}

// AppendLedger records id in the namespace and evicts the oldest entries
// beyond capacity. Appending an id that is already present is a no-op.
func (s *SQLiteStorage) AppendLedger(ctx context.Context, namespace, id string, capacity int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(namespace, "namespace"); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if capacity <= 0 {
		return ErrInvalidCapacity
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO processed_ledger (namespace, message_id) VALUES (?, ?)",
			namespace, id)
		if err != nil {
			return fmt.Errorf("failed to append ledger entry: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			DELETE FROM processed_ledger
			WHERE namespace = ? AND seq NOT IN (
				SELECT seq FROM processed_ledger
				WHERE namespace = ?
				ORDER BY seq DESC
				LIMIT ?
			)`, namespace, namespace, capacity)
		if err != nil {
			return fmt.Errorf("failed to trim ledger: %w", err)
		}
		return nil
	})
}
