package preferences

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/sentinel/internal/model"
)

type fakeBackend struct {
	err   error
	prefs model.Preferences
	saves int
	mu    sync.Mutex
}

func (f *fakeBackend) GetPreferences(context.Context) (model.Preferences, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return model.Preferences{}, f.err
	}
	return f.prefs.Clone(), nil
}

func (f *fakeBackend) SavePreferences(_ context.Context, p model.Preferences) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefs = p.Clone()
	f.saves++
	return nil
}

func TestStore_LoadFallsBackToPermissiveDefaults(t *testing.T) {
	s := NewStore(&fakeBackend{err: errors.New("disk on fire")})

	prefs := s.Load(context.Background())
	assert.NotNil(t, prefs.BlockedSenders)
	assert.NotNil(t, prefs.Whitelist)
	assert.Empty(t, prefs.BlockedSenders)
	assert.False(t, prefs.Paused)
}

func TestStore_MutationsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{}
	s := NewStore(backend)

	changed, err := s.Add(ctx, model.PreferenceCategories, "Restaurants")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = s.Add(ctx, model.PreferenceCategories, "restaurants")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, backend.saves)

	changed, err = s.AddWhitelist(ctx, "Uber")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = s.SetPaused(ctx, true)
	require.NoError(t, err)
	assert.True(t, changed)

	prefs := s.Load(ctx)
	assert.Equal(t, []string{"restaurants"}, prefs.BlockedCategories)
	assert.Equal(t, []string{"uber"}, prefs.Whitelist)
	assert.True(t, prefs.Paused)

	stats := Summarize(prefs)
	assert.Equal(t, 1, stats.BlockedCategories)
	assert.Equal(t, 1, stats.Whitelisted)
}

func TestStore_ConcurrentAddsAreSerialized(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{}
	s := NewStore(backend)

	values := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	var wg sync.WaitGroup
	for _, v := range values {
		v := v
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Add(ctx, model.PreferenceKeywords, v)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.ElementsMatch(t, values, s.Load(ctx).BlockedKeywords)
}

func TestStore_MutationFailsWhenBackendFails(t *testing.T) {
	s := NewStore(&fakeBackend{err: errors.New("unavailable")})

	_, err := s.Add(context.Background(), model.PreferenceSenders, "x")
	assert.Error(t, err)
}
