// Package pattern resolves manual forwarding rules against messages.
package pattern

import (
	"github.com/Veraticus/sentinel/internal/model"
)

// RuleMatcher finds the manual rule that applies to a message.
type RuleMatcher interface {
	// FindMatch returns the highest-precedence active rule matching msg, or nil.
	FindMatch(msg model.Message) *Rule
	// Rules returns the active rules in match order.
	Rules() []Rule
}

var _ RuleMatcher = (*MatcherImpl)(nil)

// Rule is an alias to the model.ManualRule type for convenience.
type Rule = model.ManualRule
