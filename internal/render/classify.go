package render

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind tags a classified line.
type Kind int

const (
	Blank Kind = iota
	Title
	LabelValue
	Paragraph
)

func (k Kind) String() string {
	switch k {
	case Blank:
		return "blank"
	case Title:
		return "title"
	case LabelValue:
		return "label_value"
	default:
		return "paragraph"
	}
}

// Block is one element of a rendered document.
type Block struct {
	Kind Kind
	// Text holds the cleaned line for titles and paragraphs.
	Text string
	// Label and Value are set for LabelValue blocks.
	Label string
	Value string
}

const (
	titleMaxLen = 50
	titleMinLen = 3
	labelMaxLen = 80
)

// Classify decides how a line is drawn from its raw and cleaned forms.
func Classify(raw, cleaned string) Block {
	if cleaned == "" {
		return Block{Kind: Blank}
	}
	n := utf8.RuneCountInString(cleaned)
	if strings.Contains(raw, "###") || (n < titleMaxLen && n > titleMinLen && isUpper(cleaned)) {
		return Block{Kind: Title, Text: cleaned}
	}
	if n < labelMaxLen {
		if label, value, ok := strings.Cut(cleaned, ":"); ok {
			return Block{Kind: LabelValue, Label: label, Value: value}
		}
	}
	return Block{Kind: Paragraph, Text: cleaned}
}

// isUpper reports whether s has at least one cased letter and no lower-case ones.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) || unicode.IsTitle(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

// Parse splits text on newlines and classifies every line.
func Parse(text string) []Block {
	lines := strings.Split(text, "\n")
	blocks := make([]Block, 0, len(lines))
	for _, line := range lines {
		blocks = append(blocks, Classify(line, Clean(line)))
	}
	return blocks
}
