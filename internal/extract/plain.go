package extract

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// extractPlain returns text and markdown notes as UTF-8. Files that are not
// valid UTF-8 are read as Windows-1252, the encoding spreadsheet and word
// processor exports fall back to.
func extractPlain(content []byte) (string, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	if utf8.Valid(content) {
		return string(content), nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(content)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	return string(decoded), nil
}
