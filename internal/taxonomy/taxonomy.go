// Package taxonomy reconciles provider-specific POI category strings into a
// single canonical category space. Map providers disagree on naming
// ("food_and_drink", "Restaurants", "restaurant"), so collaborative
// filtering and compatibility scoring always operate on canonical
// categories.
package taxonomy

import (
	"strings"

	"golang.org/x/text/cases"
)

// Canonical categories used throughout the engine.
const (
	CategoryRestaurant    = "restaurant"
	CategoryCafe          = "cafe"
	CategoryBar           = "bar"
	CategoryMuseum        = "museum"
	CategoryGallery       = "gallery"
	CategoryPark          = "park"
	CategoryBeach         = "beach"
	CategoryHiking        = "hiking"
	CategoryShopping      = "shopping"
	CategoryNightlife     = "nightlife"
	CategoryLandmark      = "landmark"
	CategoryEntertainment = "entertainment"
	CategoryWellness      = "wellness"
	CategoryAccommodation = "accommodation"
	CategoryOther         = "other"
)

// Mapper translates provider category codes to canonical categories. The
// explicit table is swappable data; unknown codes fall back to substring
// matching before landing on "other".
type Mapper struct {
	exact      map[string]string
	substrings []substringRule
	fold       cases.Caser
}

type substringRule struct {
	fragment string
	category string
}

// NewMapper returns a Mapper with the built-in provider tables. Additional
// provider-specific codes can be layered on with Add.
func NewMapper() *Mapper {
	m := &Mapper{
		exact: make(map[string]string),
		fold:  cases.Fold(),
	}

	for code, category := range defaultExactMappings {
		m.exact[code] = category
	}
	m.substrings = defaultSubstringRules

	return m
}

// Add registers or overrides an explicit provider-code mapping.
func (m *Mapper) Add(providerCode, category string) {
	m.exact[m.normalize(providerCode)] = category
}

// Canonical resolves a raw provider category string. Resolution order:
// explicit table, then substring fallback, then CategoryOther.
func (m *Mapper) Canonical(providerCategory string) string {
	code := m.normalize(providerCategory)
	if code == "" {
		return CategoryOther
	}

	if category, ok := m.exact[code]; ok {
		return category
	}

	for _, rule := range m.substrings {
		if strings.Contains(code, rule.fragment) {
			return rule.category
		}
	}

	return CategoryOther
}

// IsKnown reports whether the category is one of the canonical values.
func IsKnown(category string) bool {
	_, ok := canonicalSet[category]
	return ok
}

func (m *Mapper) normalize(raw string) string {
	folded := m.fold.String(strings.TrimSpace(raw))
	folded = strings.ReplaceAll(folded, "-", "_")
	folded = strings.ReplaceAll(folded, " ", "_")
	return folded
}

var canonicalSet = map[string]struct{}{
	CategoryRestaurant:    {},
	CategoryCafe:          {},
	CategoryBar:           {},
	CategoryMuseum:        {},
	CategoryGallery:       {},
	CategoryPark:          {},
	CategoryBeach:         {},
	CategoryHiking:        {},
	CategoryShopping:      {},
	CategoryNightlife:     {},
	CategoryLandmark:      {},
	CategoryEntertainment: {},
	CategoryWellness:      {},
	CategoryAccommodation: {},
	CategoryOther:         {},
}

// defaultExactMappings covers the category codes seen from the supported map
// providers. Keys are normalized (folded, underscored).
var defaultExactMappings = map[string]string{
	// Generic / already canonical
	"restaurant": CategoryRestaurant,
	"cafe":       CategoryCafe,
	"bar":        CategoryBar,
	"museum":     CategoryMuseum,
	"gallery":    CategoryGallery,
	"park":       CategoryPark,
	"beach":      CategoryBeach,
	"hiking":     CategoryHiking,
	"shopping":   CategoryShopping,
	"nightlife":  CategoryNightlife,
	"landmark":   CategoryLandmark,

	// Google-style place types
	"meal_takeaway":      CategoryRestaurant,
	"meal_delivery":      CategoryRestaurant,
	"bakery":             CategoryCafe,
	"night_club":         CategoryNightlife,
	"art_gallery":        CategoryGallery,
	"tourist_attraction": CategoryLandmark,
	"shopping_mall":      CategoryShopping,
	"department_store":   CategoryShopping,
	"amusement_park":     CategoryEntertainment,
	"movie_theater":      CategoryEntertainment,
	"spa":                CategoryWellness,
	"lodging":            CategoryAccommodation,
	"campground":         CategoryAccommodation,
	"natural_feature":    CategoryPark,

	// OSM-style tags
	"fast_food":      CategoryRestaurant,
	"pub":            CategoryBar,
	"biergarten":     CategoryBar,
	"viewpoint":      CategoryLandmark,
	"attraction":     CategoryLandmark,
	"artwork":        CategoryGallery,
	"marketplace":    CategoryShopping,
	"nature_reserve": CategoryPark,
	"trailhead":      CategoryHiking,
	"hotel":          CategoryAccommodation,
	"hostel":         CategoryAccommodation,
	"guest_house":    CategoryAccommodation,
}

// defaultSubstringRules handle codes with no explicit mapping. Order
// matters: the first matching fragment wins.
var defaultSubstringRules = []substringRule{
	{"restaurant", CategoryRestaurant},
	{"food", CategoryRestaurant},
	{"dining", CategoryRestaurant},
	{"coffee", CategoryCafe},
	{"cafe", CategoryCafe},
	{"tea", CategoryCafe},
	{"museum", CategoryMuseum},
	{"galler", CategoryGallery},
	{"art", CategoryGallery},
	{"club", CategoryNightlife},
	{"night", CategoryNightlife},
	{"bar", CategoryBar},
	{"drink", CategoryBar},
	{"park", CategoryPark},
	{"garden", CategoryPark},
	{"beach", CategoryBeach},
	{"trail", CategoryHiking},
	{"hik", CategoryHiking},
	{"shop", CategoryShopping},
	{"store", CategoryShopping},
	{"market", CategoryShopping},
	{"theat", CategoryEntertainment},
	{"cinema", CategoryEntertainment},
	{"entertain", CategoryEntertainment},
	{"spa", CategoryWellness},
	{"wellness", CategoryWellness},
	{"hotel", CategoryAccommodation},
	{"monument", CategoryLandmark},
	{"historic", CategoryLandmark},
	{"temple", CategoryLandmark},
	{"church", CategoryLandmark},
}
