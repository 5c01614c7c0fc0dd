package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/sentinel/internal/model"
	"github.com/Veraticus/sentinel/internal/pattern"
)

// Validation errors.
var (
	ErrNilContext        = errors.New("context cannot be nil")
	ErrEmptyString       = errors.New("string parameter cannot be empty")
	ErrNilParameter      = errors.New("parameter cannot be nil")
	ErrInvalidCapacity   = errors.New("ledger capacity must be positive")
	ErrInvalidActivity   = errors.New("invalid activity record")
	ErrInvalidManualRule = errors.New("invalid manual rule")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateManualRule(rule *model.ManualRule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule", ErrNilParameter)
	}
	if err := pattern.ValidateRule(rule); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidManualRule, err)
	}
	return nil
}

func validateActivity(record *model.ActivityRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record", ErrNilParameter)
	}
	if record.Action == "" {
		return fmt.Errorf("%w: missing action", ErrInvalidActivity)
	}
	if record.Timestamp.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidActivity)
	}
	return nil
}
