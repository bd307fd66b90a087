package indexer

import (
	"regexp"
	"strings"
)

var (
	blankRun  = regexp.MustCompile(`\n{3,}`)
	spaceRun  = regexp.MustCompile(`[ \t\f\v\x{00A0}]+`)
	hyphenEOL = regexp.MustCompile(`(\p{L})-\n(\p{Ll})`)
)

// Preprocess normalizes extracted text for chunking. Paragraph and line
// breaks are kept because the chunker splits on them; runs of spaces are
// collapsed, words hyphenated across a line break are joined, and more than
// one blank line becomes one.
func Preprocess(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = spaceRun.ReplaceAllString(text, " ")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	text = strings.Join(lines, "\n")
	text = hyphenEOL.ReplaceAllString(text, "$1$2")
	text = blankRun.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
