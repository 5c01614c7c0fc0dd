// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/sentinel/internal/model"
)

// ActivityFilter narrows activity log queries. Zero values mean "no filter".
type ActivityFilter struct {
	Since   *time.Time
	Until   *time.Time
	Sender  string
	Actions []model.ActivityAction
	Limit   int
	Offset  int
}

// Storage defines the contract for the persistence layer.
type Storage interface {
	// Preference operations
	GetPreferences(ctx context.Context) (model.Preferences, error)
	SavePreferences(ctx context.Context, prefs model.Preferences) error

	// Manual rule operations
	CreateManualRule(ctx context.Context, rule *model.ManualRule) error
	GetManualRule(ctx context.Context, id int) (*model.ManualRule, error)
	GetActiveManualRules(ctx context.Context) ([]model.ManualRule, error)
	GetAllManualRules(ctx context.Context) ([]model.ManualRule, error)
	UpdateManualRule(ctx context.Context, rule *model.ManualRule) error
	DeleteManualRule(ctx context.Context, id int) error

	// Processed ledger operations. Entries come back oldest first.
	LoadLedger(ctx context.Context, namespace string) ([]string, error)
	AppendLedger(ctx context.Context, namespace, id string, capacity int) error

	// Activity log operations
	AppendActivity(ctx context.Context, record *model.ActivityRecord) error
	QueryActivity(ctx context.Context, filter ActivityFilter) ([]model.ActivityRecord, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// Retriever fetches normalized messages from one mail channel.
type Retriever interface {
	Name() string
	Fetch(ctx context.Context, since time.Time) ([]model.Message, error)
}

// Transport delivers a forward request. It reports success only; transport
// level detail is logged by the implementation.
type Transport interface {
	Send(ctx context.Context, req model.ForwardRequest) bool
}

// SuggestionSink is the contract offered to the adaptive rule suggestion
// service: it may hand back approved rules and ask for classification signal.
type SuggestionSink interface {
	AcceptRule(ctx context.Context, rule model.ManualRule) (*model.ManualRule, error)
	ClassificationSignal(msg model.Message) model.ClassificationResult
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
