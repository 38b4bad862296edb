// Package locale provides the localized-string lookup the board depends on.
// The interface is deliberately narrow so tests and alternate hosts can
// substitute their own catalog.
package locale

// Translator resolves a string identifier to display text. Lookup misses
// return the key itself so untranslated identifiers stay visible instead of
// rendering blank.
type Translator interface {
	T(key string) string
}

// Catalog is a map-backed Translator.
type Catalog map[string]string

// T implements Translator.
func (c Catalog) T(key string) string {
	if s, ok := c[key]; ok {
		return s
	}
	return key
}

// English is the default catalog for the board surface.
var English = Catalog{
	"roadmap.column.idea.label":           "Ideas",
	"roadmap.column.idea.subtitle":        "Under consideration",
	"roadmap.column.planned.label":        "Planned",
	"roadmap.column.planned.subtitle":     "On the roadmap",
	"roadmap.column.in-progress.label":    "In Progress",
	"roadmap.column.in-progress.subtitle": "Being built",
	"roadmap.column.shipped.label":        "Shipped",
	"roadmap.column.shipped.subtitle":     "Released",
}

// ForLanguage returns the catalog for a language tag, falling back to
// English for anything unknown.
func ForLanguage(lang string) Translator {
	switch lang {
	case "", "en", "en-US", "en-GB":
		return English
	default:
		return English
	}
}
