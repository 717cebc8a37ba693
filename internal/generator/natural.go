package generator

import (
	"strings"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// naturalOrder compares file names so that digit runs sort by value and the text
// between them follows Russian collation: "2.jpg" < "10.jpg", "а" < "б" < "в".
type naturalOrder struct {
	col *collate.Collator
}

func newNaturalOrder() *naturalOrder {
	return &naturalOrder{col: collate.New(language.Russian)}
}

// Compare returns -1, 0 or +1. A name that is a prefix of the other sorts first.
func (o *naturalOrder) Compare(a, b string) int {
	ka, kb := naturalKey(a), naturalKey(b)
	for i := 0; i < max(len(ka), len(kb)); i++ {
		switch {
		case i >= len(ka):
			return -1
		case i >= len(kb):
			return 1
		case ka[i] == kb[i]:
			continue
		}
		// Segments alternate text, digits, text, ... starting with text.
		if i%2 == 1 {
			return compareDigits(ka[i], kb[i])
		}
		if c := o.col.CompareString(ka[i], kb[i]); c != 0 {
			return c
		}
		return strings.Compare(ka[i], kb[i])
	}
	return 0
}

// naturalKey splits s into alternating text and digit runs. Text runs are lowercased.
// The first run is always text and may be empty.
func naturalKey(s string) []string {
	var key []string
	var cur strings.Builder
	digits := false
	for _, r := range s {
		isDigit := r >= '0' && r <= '9'
		if isDigit != digits {
			key = append(key, cur.String())
			cur.Reset()
			digits = isDigit
		}
		cur.WriteRune(unicode.ToLower(r))
	}
	return append(key, cur.String())
}

// compareDigits compares decimal runs by value without overflowing on long runs.
func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
