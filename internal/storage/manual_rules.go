package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/sentinel/internal/common"
	"github.com/Veraticus/sentinel/internal/model"
)

const manualRuleColumns = `id, name, sender_pattern, subject_pattern, forward_to, purpose,
	priority, is_active, created_at`

// CreateManualRule inserts a new manual rule and fills in its ID.
func (s *SQLiteStorage) CreateManualRule(ctx context.Context, rule *model.ManualRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateManualRule(rule); err != nil {
		return err
	}

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO manual_rules (
			name, sender_pattern, subject_pattern, forward_to, purpose,
			priority, is_active, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.Name, rule.SenderPattern, rule.SubjectPattern, rule.ForwardTo, rule.Purpose,
		rule.Priority, rule.Active, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create manual rule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get manual rule ID: %w", err)
	}

	rule.ID = int(id)
	rule.CreatedAt = now

	return nil
}

// GetManualRule retrieves a manual rule by ID.
func (s *SQLiteStorage) GetManualRule(ctx context.Context, id int) (*model.ManualRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		"SELECT "+manualRuleColumns+" FROM manual_rules WHERE id = ?", id)

	rule, err := scanManualRule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("manual rule %d: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get manual rule: %w", err)
	}
	return rule, nil
}

// GetActiveManualRules returns active rules in creation order. Priority
// ordering is applied by the matcher.
func (s *SQLiteStorage) GetActiveManualRules(ctx context.Context) ([]model.ManualRule, error) {
	return s.queryManualRules(ctx, "WHERE is_active = 1")
}

// GetAllManualRules returns every rule in creation order.
func (s *SQLiteStorage) GetAllManualRules(ctx context.Context) ([]model.ManualRule, error) {
	return s.queryManualRules(ctx, "")
}

func (s *SQLiteStorage) queryManualRules(ctx context.Context, where string) ([]model.ManualRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+manualRuleColumns+" FROM manual_rules "+where+" ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query manual rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.ManualRule
	for rows.Next() {
		rule, err := scanManualRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan manual rule: %w", err)
		}
		rules = append(rules, *rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating manual rules: %w", err)
	}

	return rules, nil
}

// UpdateManualRule updates an existing manual rule.
func (s *SQLiteStorage) UpdateManualRule(ctx context.Context, rule *model.ManualRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateManualRule(rule); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE manual_rules SET
			name = ?, sender_pattern = ?, subject_pattern = ?, forward_to = ?, purpose = ?,
			priority = ?, is_active = ?
		WHERE id = ?`,
		rule.Name, rule.SenderPattern, rule.SubjectPattern, rule.ForwardTo, rule.Purpose,
		rule.Priority, rule.Active, rule.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update manual rule: %w", err)
	}

	return requireAffected(result, "manual rule", rule.ID)
}

// DeleteManualRule deletes a manual rule.
func (s *SQLiteStorage) DeleteManualRule(ctx context.Context, id int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM manual_rules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete manual rule: %w", err)
	}

	return requireAffected(result, "manual rule", id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanManualRule(row rowScanner) (*model.ManualRule, error) {
	var rule model.ManualRule
	err := row.Scan(
		&rule.ID, &rule.Name, &rule.SenderPattern, &rule.SubjectPattern, &rule.ForwardTo,
		&rule.Purpose, &rule.Priority, &rule.Active, &rule.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func requireAffected(result sql.Result, what string, id int) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s %d: %w", what, id, common.ErrNotFound)
	}
	return nil
}
