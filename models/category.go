package models

import "strings"

// Category ist eine der sieben festen Content-Kategorien (ein Tag pro Woche).
type Category string

const (
	CategoryBuild   Category = "Build"
	CategoryAttract Category = "Attract"
	CategoryConvert Category = "Convert"
	CategoryDeliver Category = "Deliver"
	CategorySupport Category = "Support"
	CategoryProfit  Category = "Profit"
	CategoryRest    Category = "Rest"
)

// Categories listet alle Kategorien in der festen Wochenreihenfolge.
var Categories = []Category{
	CategoryBuild,
	CategoryAttract,
	CategoryConvert,
	CategoryDeliver,
	CategorySupport,
	CategoryProfit,
	CategoryRest,
}

// ParseCategory akzeptiert Kategorienamen unabhängig von Groß-/Kleinschreibung.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return c, true
		}
	}
	return "", false
}

// DayNumber gibt den Wochentag (1-7) der Kategorie zurück, 0 wenn unbekannt.
func (c Category) DayNumber() int {
	for i, cat := range Categories {
		if cat == c {
			return i + 1
		}
	}
	return 0
}
