package storage

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/Veraticus/sentinel/internal/model"
	"github.com/Veraticus/sentinel/internal/service"
)

// AppendActivity writes one activity record. Records are never updated.
func (s *SQLiteStorage) AppendActivity(ctx context.Context, record *model.ActivityRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateActivity(record); err != nil {
		return err
	}
	if err := validateString(record.ID, "record.ID"); err != nil {
		return err
	}

	var amount sql.NullFloat64
	if record.Amount != nil {
		amount = sql.NullFloat64{Float64: *record.Amount, Valid: true}
	}

	query, args, err := sq.Insert("activity_log").
		Columns("id", "message_id", "subject", "sender", "action", "category",
			"reason", "amount", "source", "created_at").
		Values(record.ID, record.MessageID, record.Subject, record.Sender, string(record.Action),
			string(record.Category), record.Reason, amount, record.Source, record.Timestamp.UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build activity insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}
	return nil
}

// QueryActivity returns activity records matching filter, newest first.
func (s *SQLiteStorage) QueryActivity(ctx context.Context, filter service.ActivityFilter) ([]model.ActivityRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query, args, err := buildActivityQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build activity query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := []model.ActivityRecord{}
	for rows.Next() {
		var (
			rec      model.ActivityRecord
			action   string
			category string
			amount   sql.NullFloat64
		)
		err := rows.Scan(&rec.ID, &rec.MessageID, &rec.Subject, &rec.Sender, &action,
			&category, &rec.Reason, &amount, &rec.Source, &rec.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		rec.Action = model.ActivityAction(action)
		rec.Category = model.Category(category)
		if amount.Valid {
			v := amount.Float64
			rec.Amount = &v
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity: %w", err)
	}

	return records, nil
}

func buildActivityQuery(filter service.ActivityFilter) sq.SelectBuilder {
	q := sq.Select("id", "message_id", "subject", "sender", "action", "category",
		"reason", "amount", "source", "created_at").
		From("activity_log").
		OrderBy("created_at DESC", "rowid DESC")

	if filter.Since != nil {
		q = q.Where(sq.GtOrEq{"created_at": filter.Since.UTC()})
	}
	if filter.Until != nil {
		q = q.Where(sq.Lt{"created_at": filter.Until.UTC()})
	}
	if sender := strings.ToLower(strings.TrimSpace(filter.Sender)); sender != "" {
		q = q.Where(sq.Like{"LOWER(sender)": "%" + sender + "%"})
	}
	if len(filter.Actions) > 0 {
		actions := make([]string, len(filter.Actions))
		for i, a := range filter.Actions {
			actions[i] = string(a)
		}
		q = q.Where(sq.Eq{"action": actions})
	}

	switch {
	case filter.Limit > 0:
		q = q.Limit(uint64(filter.Limit))
	case filter.Offset > 0:
		// SQLite only accepts OFFSET after a LIMIT clause.
		q = q.Limit(math.MaxInt64)
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	return q
}
