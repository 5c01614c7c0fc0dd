package preferences

import (
	"fmt"
	"slices"

	"github.com/Veraticus/sentinel/internal/common"
	"github.com/Veraticus/sentinel/internal/model"
)

// Add returns prefs with value added to list t. The second result is false
// when the value was already present.
func Add(prefs model.Preferences, t model.PreferenceType, value string) (model.Preferences, bool, error) {
	out := prefs.Clone()
	list, v, err := target(&out, t, value)
	if err != nil {
		return prefs, false, err
	}
	if slices.Contains(*list, v) {
		return out, false, nil
	}
	*list = append(*list, v)
	return out, true, nil
}

// Remove returns prefs with value removed from list t. The second result is
// false when the value was not present.
func Remove(prefs model.Preferences, t model.PreferenceType, value string) (model.Preferences, bool, error) {
	out := prefs.Clone()
	list, v, err := target(&out, t, value)
	if err != nil {
		return prefs, false, err
	}
	idx := slices.Index(*list, v)
	if idx < 0 {
		return out, false, nil
	}
	*list = slices.Delete(*list, idx, idx+1)
	return out, true, nil
}

// AddWhitelist is shorthand for Add on the whitelist.
func AddWhitelist(prefs model.Preferences, value string) (model.Preferences, bool, error) {
	return Add(prefs, model.PreferenceWhitelist, value)
}

func target(p *model.Preferences, t model.PreferenceType, value string) (*[]string, string, error) {
	list := p.List(t)
	if list == nil {
		return nil, "", fmt.Errorf("%w: unknown list %q", common.ErrInvalidPreference, t)
	}
	v := model.NormalizeValue(value)
	if v == "" {
		return nil, "", fmt.Errorf("%w: empty value", common.ErrInvalidPreference)
	}
	if t == model.PreferenceCategories {
		if _, ok := model.ParseCategory(v); !ok {
			return nil, "", fmt.Errorf("%w: unknown category %q", common.ErrInvalidPreference, v)
		}
	}
	return list, v, nil
}
