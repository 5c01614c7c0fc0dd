package engine

import (
	"context"
	"fmt"

	"github.com/Veraticus/sentinel/internal/model"
	"github.com/Veraticus/sentinel/internal/pattern"
	"github.com/Veraticus/sentinel/internal/service"
)

var _ service.SuggestionSink = (*RuleSuggestionAdapter)(nil)

// RuleSuggestionAdapter lets an external suggestion service hand approved
// rules to the store and read classifier output.
type RuleSuggestionAdapter struct {
	store      service.Storage
	classifier Classifier
}

// NewRuleSuggestionAdapter creates an adapter over store and classifier.
func NewRuleSuggestionAdapter(store service.Storage, classifier Classifier) *RuleSuggestionAdapter {
	return &RuleSuggestionAdapter{store: store, classifier: classifier}
}

// AcceptRule stores an approved candidate as a new active manual rule.
func (a *RuleSuggestionAdapter) AcceptRule(ctx context.Context, rule model.ManualRule) (*model.ManualRule, error) {
	rule.ID = 0
	rule.Active = true
	if rule.Priority == 0 {
		rule.Priority = model.DefaultManualRulePriority
	}
	if err := pattern.ValidateRule(&rule); err != nil {
		return nil, fmt.Errorf("rejecting suggested rule: %w", err)
	}
	if err := a.store.CreateManualRule(ctx, &rule); err != nil {
		return nil, fmt.Errorf("failed to store suggested rule: %w", err)
	}
	return &rule, nil
}

// ClassificationSignal returns the classifier's view of msg.
func (a *RuleSuggestionAdapter) ClassificationSignal(msg model.Message) model.ClassificationResult {
	return a.classifier.Classify(msg)
}
