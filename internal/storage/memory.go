package storage

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/sentinel/internal/common"
	"github.com/Veraticus/sentinel/internal/model"
	"github.com/Veraticus/sentinel/internal/service"
)

var _ service.Storage = (*MemoryStorage)(nil)

// MemoryStorage is a process-local Storage used for dry runs and tests.
// Nothing survives Close.
type MemoryStorage struct {
	ledgers  map[string][]string
	prefs    model.Preferences
	rules    []model.ManualRule
	activity []model.ActivityRecord
	nextRule int
	mu       sync.Mutex
}

// NewMemoryStorage returns an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		ledgers:  make(map[string][]string),
		prefs:    model.Preferences{}.Normalize(),
		nextRule: 1,
	}
}

// GetPreferences returns a copy of the stored preferences.
func (m *MemoryStorage) GetPreferences(ctx context.Context) (model.Preferences, error) {
	if err := validateContext(ctx); err != nil {
		return model.Preferences{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prefs.Clone(), nil
}

// SavePreferences replaces the stored preferences.
func (m *MemoryStorage) SavePreferences(ctx context.Context, prefs model.Preferences) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs = prefs.Normalize()
	return nil
}

// CreateManualRule stores a new rule.
func (m *MemoryStorage) CreateManualRule(ctx context.Context, rule *model.ManualRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateManualRule(rule); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rule.ID = m.nextRule
	rule.CreatedAt = time.Now().UTC()
	m.nextRule++
	m.rules = append(m.rules, *rule)
	return nil
}

// GetManualRule returns a rule by ID.
func (m *MemoryStorage) GetManualRule(ctx context.Context, id int) (*model.ManualRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rules {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, fmt.Errorf("manual rule %d: %w", id, common.ErrNotFound)
}

// GetActiveManualRules returns active rules in creation order.
func (m *MemoryStorage) GetActiveManualRules(ctx context.Context) ([]model.ManualRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ManualRule
	for _, r := range m.rules {
		if r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

// GetAllManualRules returns every rule in creation order.
func (m *MemoryStorage) GetAllManualRules(ctx context.Context) ([]model.ManualRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.rules), nil
}

// UpdateManualRule replaces an existing rule.
func (m *MemoryStorage) UpdateManualRule(ctx context.Context, rule *model.ManualRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateManualRule(rule); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rules {
		if m.rules[i].ID == rule.ID {
			rule.CreatedAt = m.rules[i].CreatedAt
			m.rules[i] = *rule
			return nil
		}
	}
	return fmt.Errorf("manual rule %d: %w", rule.ID, common.ErrNotFound)
}

// DeleteManualRule removes a rule.
func (m *MemoryStorage) DeleteManualRule(ctx context.Context, id int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rules {
		if m.rules[i].ID == id {
			m.rules = slices.Delete(m.rules, i, i+1)
			return nil
		}
	}
	return fmt.Errorf("manual rule %d: %w", id, common.ErrNotFound)
}

// LoadLedger returns a namespace's ids, oldest first.
func (m *MemoryStorage) LoadLedger(ctx context.Context, namespace string) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.ledgers[namespace]...), nil
}

// AppendLedger records id and evicts the oldest entries beyond capacity.
func (m *MemoryStorage) AppendLedger(ctx context.Context, namespace, id string, capacity int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if capacity <= 0 {
		return ErrInvalidCapacity
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.ledgers[namespace]
	if slices.Contains(ids, id) {
		return nil
	}
	ids = append(ids, id)
	if over := len(ids) - capacity; over > 0 {
		ids = slices.Clone(ids[over:])
	}
	m.ledgers[namespace] = ids
	return nil
}

// AppendActivity stores a record.
func (m *MemoryStorage) AppendActivity(ctx context.Context, record *model.ActivityRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateActivity(record); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activity = append(m.activity, *record)
	return nil
}

// QueryActivity filters stored records, newest first.
func (m *MemoryStorage) QueryActivity(ctx context.Context, filter service.ActivityFilter) ([]model.ActivityRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	sender := strings.ToLower(strings.TrimSpace(filter.Sender))
	out := []model.ActivityRecord{}
	for i := len(m.activity) - 1; i >= 0; i-- {
		rec := m.activity[i]
		if filter.Since != nil && rec.Timestamp.Before(*filter.Since) {
			continue
		}
		if filter.Until != nil && !rec.Timestamp.Before(*filter.Until) {
			continue
		}
		if sender != "" && !strings.Contains(strings.ToLower(rec.Sender), sender) {
			continue
		}
		if len(filter.Actions) > 0 && !slices.Contains(filter.Actions, rec.Action) {
			continue
		}
		out = append(out, rec)
	}
	slices.SortStableFunc(out, func(a, b model.ActivityRecord) int {
		return b.Timestamp.Compare(a.Timestamp)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []model.ActivityRecord{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Migrate is a no-op.
func (m *MemoryStorage) Migrate(ctx context.Context) error {
	return validateContext(ctx)
}

// Close is a no-op.
func (m *MemoryStorage) Close() error {
	return nil
}
