package model

import (
	"fmt"
	"slices"
	"strings"
)

// PreferenceType names one of the user-maintained preference lists.
type PreferenceType string

// Preference list types.
const (
	PreferenceSenders    PreferenceType = "senders"
	PreferenceCategories PreferenceType = "categories"
	PreferenceKeywords   PreferenceType = "keywords"
	PreferenceWhitelist  PreferenceType = "whitelist"
)

// ParsePreferenceType validates a preference list name.
func ParsePreferenceType(s string) (PreferenceType, error) {
	switch t := PreferenceType(strings.ToLower(strings.TrimSpace(s))); t {
	case PreferenceSenders, PreferenceCategories, PreferenceKeywords, PreferenceWhitelist:
		return t, nil
	default:
		return "", fmt.Errorf("unknown preference type %q", s)
	}
}

// Preferences holds the recipient's block and allow lists. Every list is
// always present; an empty list means "nothing configured".
type Preferences struct {
	BlockedSenders    []string `json:"senders"`
	BlockedCategories []string `json:"categories"`
	BlockedKeywords   []string `json:"keywords"`
	Whitelist         []string `json:"whitelist"`
	Paused            bool     `json:"paused"`
}

// NormalizeValue lower-cases and trims a preference entry.
func NormalizeValue(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// Normalize returns a copy with non-nil, normalized, de-duplicated lists.
func (p Preferences) Normalize() Preferences {
	return Preferences{
		BlockedSenders:    normalizeList(p.BlockedSenders),
		BlockedCategories: normalizeList(p.BlockedCategories),
		BlockedKeywords:   normalizeList(p.BlockedKeywords),
		Whitelist:         normalizeList(p.Whitelist),
		Paused:            p.Paused,
	}
}

// Clone returns a deep copy.
func (p Preferences) Clone() Preferences {
	return Preferences{
		BlockedSenders:    slices.Clone(nonNil(p.BlockedSenders)),
		BlockedCategories: slices.Clone(nonNil(p.BlockedCategories)),
		BlockedKeywords:   slices.Clone(nonNil(p.BlockedKeywords)),
		Whitelist:         slices.Clone(nonNil(p.Whitelist)),
		Paused:            p.Paused,
	}
}

// List returns the list for the given type.
func (p *Preferences) List(t PreferenceType) *[]string {
	switch t {
	case PreferenceSenders:
		return &p.BlockedSenders
	case PreferenceCategories:
		return &p.BlockedCategories
	case PreferenceKeywords:
		return &p.BlockedKeywords
	case PreferenceWhitelist:
		return &p.Whitelist
	}
	return nil
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = NormalizeValue(v)
		if v == "" || slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
