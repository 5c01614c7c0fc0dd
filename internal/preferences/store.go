package preferences

import (
	"context"
	"fmt"
	"sync"

	"github.com/Veraticus/sentinel/internal/common"
	"github.com/Veraticus/sentinel/internal/model"
)

// Backend persists the preference document.
type Backend interface {
	GetPreferences(ctx context.Context) (model.Preferences, error)
	SavePreferences(ctx context.Context, prefs model.Preferences) error
}

// Store loads and mutates preferences through a Backend. Mutations are
// serialized so concurrent callers never lose an update.
type Store struct {
	backend Backend
	mu      sync.Mutex
}

// NewStore creates a preference store.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// Load returns the current preferences. It never fails: a backend fault is
// logged and an empty, permissive preference set is returned.
func (s *Store) Load(ctx context.Context) model.Preferences {
	prefs, err := s.backend.GetPreferences(ctx)
	if err != nil {
		common.LogError(err, "Failed to load preferences, using permissive defaults", nil)
		return model.Preferences{}.Normalize()
	}
	return prefs.Normalize()
}

// Add adds value to list t and persists the result.
func (s *Store) Add(ctx context.Context, t model.PreferenceType, value string) (bool, error) {
	return s.update(ctx, func(p model.Preferences) (model.Preferences, bool, error) {
		return Add(p, t, value)
	})
}

// Remove removes value from list t and persists the result.
func (s *Store) Remove(ctx context.Context, t model.PreferenceType, value string) (bool, error) {
	return s.update(ctx, func(p model.Preferences) (model.Preferences, bool, error) {
		return Remove(p, t, value)
	})
}

// AddWhitelist adds value to the whitelist and persists the result.
func (s *Store) AddWhitelist(ctx context.Context, value string) (bool, error) {
	return s.Add(ctx, model.PreferenceWhitelist, value)
}

// SetPaused turns the emergency stop on or off.
func (s *Store) SetPaused(ctx context.Context, paused bool) (bool, error) {
	return s.update(ctx, func(p model.Preferences) (model.Preferences, bool, error) {
		if p.Paused == paused {
			return p, false, nil
		}
		p.Paused = paused
		return p, true, nil
	})
}

func (s *Store) update(ctx context.Context, fn func(model.Preferences) (model.Preferences, bool, error)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.backend.GetPreferences(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read preferences: %w", err)
	}

	next, changed, err := fn(current.Normalize())
	if err != nil || !changed {
		return false, err
	}

	if err := s.backend.SavePreferences(ctx, next); err != nil {
		return false, fmt.Errorf("failed to save preferences: %w", err)
	}
	return true, nil
}

// Stats summarizes list sizes for display.
type Stats struct {
	BlockedSenders    int
	BlockedCategories int
	BlockedKeywords   int
	Whitelisted       int
	Paused            bool
}

// Summarize counts the entries in prefs.
func Summarize(prefs model.Preferences) Stats {
	return Stats{
		BlockedSenders:    len(prefs.BlockedSenders),
		BlockedCategories: len(prefs.BlockedCategories),
		BlockedKeywords:   len(prefs.BlockedKeywords),
		Whitelisted:       len(prefs.Whitelist),
		Paused:            prefs.Paused,
	}
}
