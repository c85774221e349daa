package codec

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// displayName turns an id-like string into the engine's display casing:
// "electric_terrain" and "electric terrain" both become "ElectricTerrain",
// "fire" becomes "Fire". Already cased input is preserved.
func displayName(s string) string {
	if s == "" {
		return ""
	}
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == ' ' || r == '-'
	})
	caser := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(caser.String(p))
	}
	return b.String()
}

// titleWords title-cases every word of s, keeping separators.
func titleWords(s string) string {
	return cases.Title(language.Und).String(s)
}
