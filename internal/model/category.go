package model

import "strings"

// Category is a coarse classification of a receipt's merchant or domain.
// The same enumeration is used by the classifier and the reply parser.
type Category string

// Category constants.
const (
	CategoryAmazon         Category = "amazon"
	CategoryTransportation Category = "transportation"
	CategoryFoodDelivery   Category = "food-delivery"
	CategoryRestaurants    Category = "restaurants"
	CategoryRetail         Category = "retail"
	CategorySubscriptions  Category = "subscriptions"
	CategoryPayments       Category = "payments"
	CategoryUtilities      Category = "utilities"
	CategoryHealthcare     Category = "healthcare"
	CategoryGovernment     Category = "government"
	CategoryOther          Category = "other"
)

var allCategories = []Category{
	CategoryAmazon,
	CategoryTransportation,
	CategoryFoodDelivery,
	CategoryRestaurants,
	CategoryRetail,
	CategorySubscriptions,
	CategoryPayments,
	CategoryUtilities,
	CategoryHealthcare,
	CategoryGovernment,
	CategoryOther,
}

// AllCategories returns every known category in declaration order.
func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// BlockableCategories returns the categories a reply can block by name.
//
// "amazon" is left out because it is defined by the sender itself, so
// "stop amazon" is already fully expressed as a sender block. "other" is
// a catch-all and never a meaningful block target.
func BlockableCategories() []Category {
	out := make([]Category, 0, len(allCategories))
	for _, c := range allCategories {
		if c == CategoryAmazon || c == CategoryOther {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ParseCategory converts a user-supplied string into a Category.
func ParseCategory(s string) (Category, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range allCategories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// String implements fmt.Stringer.
func (c Category) String() string {
	return string(c)
}
