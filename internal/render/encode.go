package render

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Replacement is drawn for runes that have no Latin-1 form.
const Replacement = '?'

// Latin1 re-encodes s for the core PDF fonts. Runes outside ISO-8859-1 become
// Replacement; the result is a byte string, not valid UTF-8.
func Latin1(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if c, ok := charmap.ISO8859_1.EncodeRune(r); ok {
			b.WriteByte(c)
			continue
		}
		b.WriteByte(Replacement)
	}
	return b.String()
}
