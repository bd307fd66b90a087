package render

import (
	"regexp"
	"strings"
)

var headerMarks = regexp.MustCompile(`#+[\s\p{Zs}]?`)

// Clean strips lightweight markup from one line: header marks anywhere in the
// line, bold and italic asterisks, and the doubled spaces they leave behind.
func Clean(line string) string {
	s := headerMarks.ReplaceAllString(line, "")
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "*", "")
	s = strings.ReplaceAll(s, "  ", " ")
	return strings.TrimSpace(s)
}
