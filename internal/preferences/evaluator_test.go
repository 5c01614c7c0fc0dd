package preferences

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/sentinel/internal/model"
)

type staticCategorizer model.Category

func (c staticCategorizer) Categorize(model.Message) model.Category {
	return model.Category(c)
}

func TestEvaluator_IsBlocked(t *testing.T) {
	tests := []struct {
		name     string
		msg      model.Message
		prefs    model.Preferences
		category model.Category
		want     bool
	}{
		{
			name: "whitelist beats blocked sender",
			msg:  model.Message{From: "orders@amazon.com"},
			prefs: model.Preferences{
				Whitelist:      []string{"amazon"},
				BlockedSenders: []string{"amazon"},
			},
			category: model.CategoryAmazon,
			want:     false,
		},
		{
			name: "whitelist beats blocked category",
			msg:  model.Message{From: "orders@amazon.com"},
			prefs: model.Preferences{
				Whitelist:         []string{"orders@"},
				BlockedCategories: []string{"amazon"},
			},
			category: model.CategoryAmazon,
			want:     false,
		},
		{
			name:     "blocked sender substring",
			msg:      model.Message{From: "Uber Receipts <noreply@uber.com>"},
			prefs:    model.Preferences{BlockedSenders: []string{"uber"}},
			category: model.CategoryTransportation,
			want:     true,
		},
		{
			name:     "blocked category",
			msg:      model.Message{From: "noreply@lyft.com"},
			prefs:    model.Preferences{BlockedCategories: []string{"transportation"}},
			category: model.CategoryTransportation,
			want:     true,
		},
		{
			name:     "blocked keyword in subject",
			msg:      model.Message{From: "billing@example.com", Subject: "Your MONTHLY statement"},
			prefs:    model.Preferences{BlockedKeywords: []string{"monthly"}},
			category: model.CategoryOther,
			want:     true,
		},
		{
			name:     "keyword only checked against subject",
			msg:      model.Message{From: "monthly@example.com", Subject: "Receipt"},
			prefs:    model.Preferences{BlockedKeywords: []string{"monthly"}},
			category: model.CategoryOther,
			want:     false,
		},
		{
			name:     "empty preferences",
			msg:      model.Message{From: "orders@amazon.com"},
			prefs:    model.Preferences{},
			category: model.CategoryAmazon,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEvaluator(staticCategorizer(tt.category))
			assert.Equal(t, tt.want, e.IsBlocked(tt.msg, tt.prefs.Normalize()))
		})
	}
}

func TestEvaluator_DecideReason(t *testing.T) {
	e := NewEvaluator(staticCategorizer(model.CategoryRetail))
	prefs := model.Preferences{BlockedCategories: []string{"retail"}}.Normalize()

	blocked, reason := e.Decide(model.Message{From: "orders@target.com"}, prefs)
	assert.True(t, blocked)
	assert.Equal(t, "blocked category: retail", reason)
}

func TestMutations(t *testing.T) {
	base := model.Preferences{}.Normalize()

	prefs, changed, err := Add(base, model.PreferenceSenders, "  Amazon ")
	assert.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"amazon"}, prefs.BlockedSenders)
	assert.Empty(t, base.BlockedSenders, "input must not be mutated")

	prefs, changed, err = Add(prefs, model.PreferenceSenders, "AMAZON")
	assert.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, []string{"amazon"}, prefs.BlockedSenders)

	prefs, changed, err = AddWhitelist(prefs, "Starbucks")
	assert.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"starbucks"}, prefs.Whitelist)

	prefs, changed, err = Remove(prefs, model.PreferenceSenders, "amazon ")
	assert.NoError(t, err)
	assert.True(t, changed)
	assert.Empty(t, prefs.BlockedSenders)

	_, changed, err = Remove(prefs, model.PreferenceSenders, "amazon")
	assert.NoError(t, err)
	assert.False(t, changed)

	_, _, err = Add(prefs, model.PreferenceCategories, "groceries")
	assert.Error(t, err)

	_, _, err = Add(prefs, model.PreferenceKeywords, "   ")
	assert.Error(t, err)

	_, _, err = Add(prefs, model.PreferenceType("nope"), "x")
	assert.Error(t, err)
}
