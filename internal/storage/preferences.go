package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/Veraticus/sentinel/internal/model"
)

const settingPaused = "paused"

var preferenceLists = []model.PreferenceType{
	model.PreferenceSenders,
	model.PreferenceCategories,
	model.PreferenceKeywords,
	model.PreferenceWhitelist,
}

// GetPreferences returns the stored preference lists. A fresh database
// yields empty lists.
func (s *SQLiteStorage) GetPreferences(ctx context.Context) (model.Preferences, error) {
	if err := validateContext(ctx); err != nil {
		return model.Preferences{}, err
	}

	prefs := model.Preferences{}.Normalize()

	rows, err := s.db.QueryContext(ctx,
		"SELECT list, value FROM preferences ORDER BY list, position")
	if err != nil {
		return model.Preferences{}, fmt.Errorf("failed to query preferences: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var list, value string
		if err := rows.Scan(&list, &value); err != nil {
			return model.Preferences{}, fmt.Errorf("failed to scan preference: %w", err)
		}
		target := prefs.List(model.PreferenceType(list))
		if target == nil {
			continue
		}
		*target = append(*target, value)
	}
	if err := rows.Err(); err != nil {
		return model.Preferences{}, fmt.Errorf("error iterating preferences: %w", err)
	}

	var paused string
	err = s.db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE key = ?", settingPaused).Scan(&paused)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return model.Preferences{}, fmt.Errorf("failed to read settings: %w", err)
	default:
		prefs.Paused, _ = strconv.ParseBool(paused)
	}

	return prefs, nil
}

// SavePreferences replaces all stored preference lists in one transaction.
func (s *SQLiteStorage) SavePreferences(ctx context.Context, prefs model.Preferences) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	prefs = prefs.Normalize()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM preferences"); err != nil {
			return fmt.Errorf("failed to clear preferences: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO preferences (list, value, position) VALUES (?, ?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, list := range preferenceLists {
			for i, value := range *prefs.List(list) {
				if _, err := stmt.ExecContext(ctx, string(list), value, i); err != nil {
					return fmt.Errorf("failed to save %s preference %q: %w", list, value, err)
				}
			}
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO settings (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			settingPaused, strconv.FormatBool(prefs.Paused))
		if err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		return nil
	})
}
