package grid

import (
	"unicode"

	"golang.org/x/text/width"
)

// RuneWidth returns the number of columns r occupies: 0 for combining marks
// and non-graphic runes, 2 for East Asian wide and fullwidth runes, 1 otherwise.
func RuneWidth(r rune) int {
	if r == 0 || !unicode.IsGraphic(r) {
		return 0
	}
	if unicode.In(r, unicode.Mn, unicode.Me, unicode.Mc) {
		return 0
	}

	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	default:
		return 1
	}
}
