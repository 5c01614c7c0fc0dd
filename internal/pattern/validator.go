package pattern

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/sentinel/internal/common"
)

// ErrRuleWithoutPattern is returned for rules that would match every message.
var ErrRuleWithoutPattern = errors.New("rule needs a sender or subject pattern")

// ValidateRule checks a manual rule before it is stored.
func ValidateRule(rule *Rule) error {
	if rule == nil {
		return fmt.Errorf("%w: nil rule", common.ErrInvalidPattern)
	}
	if strings.TrimSpace(rule.Name) == "" {
		return fmt.Errorf("%w: rule name is required", common.ErrInvalidPattern)
	}
	if strings.TrimSpace(rule.SenderPattern) == "" && strings.TrimSpace(rule.SubjectPattern) == "" {
		return ErrRuleWithoutPattern
	}
	if rule.SenderPattern != "" {
		if _, err := Compile(rule.SenderPattern); err != nil {
			return fmt.Errorf("sender pattern: %w", err)
		}
	}
	if rule.SubjectPattern != "" {
		if _, err := Compile(rule.SubjectPattern); err != nil {
			return fmt.Errorf("subject pattern: %w", err)
		}
	}
	if rule.Priority < 0 {
		return fmt.Errorf("%w: priority must not be negative", common.ErrInvalidPattern)
	}
	return nil
}
