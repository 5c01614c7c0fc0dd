// Package preferences evaluates and maintains the recipient's block and
// allow lists.
package preferences

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Veraticus/sentinel/internal/model"
)

// Categorizer maps a message to its merchant category.
type Categorizer interface {
	Categorize(msg model.Message) model.Category
}

// Evaluator decides whether a classified message is suppressed.
type Evaluator struct {
	categorizer Categorizer
}

// NewEvaluator creates an evaluator that uses c for category blocks.
func NewEvaluator(c Categorizer) *Evaluator {
	return &Evaluator{categorizer: c}
}

// IsBlocked reports whether msg is suppressed by prefs.
func (e *Evaluator) IsBlocked(msg model.Message, prefs model.Preferences) bool {
	blocked, _ := e.Decide(msg, prefs)
	return blocked
}

// Decide is IsBlocked plus a human-readable reason. Evaluation order is
// whitelist, blocked senders, blocked categories, blocked subject keywords.
func (e *Evaluator) Decide(msg model.Message, prefs model.Preferences) (bool, string) {
	from := strings.ToLower(msg.From)
	subject := strings.ToLower(msg.Subject)

	if v, ok := firstContained(from, prefs.Whitelist); ok {
		return false, fmt.Sprintf("whitelisted: %s", v)
	}
	if v, ok := firstContained(from, prefs.BlockedSenders); ok {
		return true, fmt.Sprintf("blocked sender: %s", v)
	}
	if e.categorizer != nil && len(prefs.BlockedCategories) > 0 {
		category := string(e.categorizer.Categorize(msg))
		if slices.Contains(prefs.BlockedCategories, category) {
			return true, fmt.Sprintf("blocked category: %s", category)
		}
	}
	if v, ok := firstContained(subject, prefs.BlockedKeywords); ok {
		return true, fmt.Sprintf("blocked keyword: %s", v)
	}
	return false, ""
}

// IsWhitelisted reports whether the sender matches a whitelist entry.
func IsWhitelisted(msg model.Message, prefs model.Preferences) bool {
	_, ok := firstContained(strings.ToLower(msg.From), prefs.Whitelist)
	return ok
}

func firstContained(s string, entries []string) (string, bool) {
	for _, v := range entries {
		if v != "" && strings.Contains(s, v) {
			return v, true
		}
	}
	return "", false
}
