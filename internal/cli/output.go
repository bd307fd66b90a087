// Package cli formats command output for the terminal or for other programs.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"

	"github.com/hyperjump/omny/internal/models"
	"github.com/hyperjump/omny/internal/nutrition"
)

// Format is the output format of a command.
type Format string

const (
	// FormatText is human-readable text (default).
	FormatText Format = "text"
	// FormatJSON is structured JSON for machine consumption.
	FormatJSON Format = "json"
)

const wrapWidth = 80

// ParseFormat accepts "text" or "json"; empty means text.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Printer writes command results. Model replies are rendered as markdown when
// the destination is a terminal.
type Printer struct {
	w        io.Writer
	format   Format
	markdown *glamour.TermRenderer
}

// NewPrinter creates a printer for w.
func NewPrinter(w io.Writer, format Format) *Printer {
	p := &Printer{w: w, format: format}
	if f, ok := w.(*os.File); ok && format == FormatText && IsTerminal(f) {
		p.markdown = newMarkdownRenderer()
	}
	return p
}

func newMarkdownRenderer() *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrapWidth),
	)
	if err != nil {
		return nil
	}
	return r
}

// Format returns the printer's output format.
func (p *Printer) Format() Format {
	return p.format
}

// JSON writes v as indented JSON.
func (p *Printer) JSON(v interface{}) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Reply writes a model reply: JSON {"reply": ...} or markdown text.
func (p *Printer) Reply(text string) error {
	if p.format == FormatJSON {
		return p.JSON(map[string]string{"reply": text})
	}
	_, err := fmt.Fprintln(p.w, p.renderMarkdown(text))
	return err
}

func (p *Printer) renderMarkdown(text string) string {
	if p.markdown == nil {
		return text
	}
	out, err := p.markdown.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// Metrics writes a profile and its derived metrics.
func (p *Printer) Metrics(profile models.Profile, r nutrition.Report) error {
	if p.format == FormatJSON {
		return p.JSON(struct {
			Profile models.Profile   `json:"profile"`
			Metrics nutrition.Report `json:"metrics"`
		}{profile, r})
	}
	fmt.Fprintf(p.w, "Profile: %d years, %gkg, %gcm, %s, goal %s\n",
		profile.Age, profile.Weight, profile.Height, profile.Gender, profile.Goal)
	fmt.Fprintf(p.w, "BMR:      %.0f kcal/day\n", r.BMR)
	fmt.Fprintf(p.w, "Protein:  %dg\n", r.Macros.Protein)
	fmt.Fprintf(p.w, "Fats:     %dg\n", r.Macros.Fat)
	fmt.Fprintf(p.w, "Carbs:    %dg\n", r.Macros.Carbs)
	_, err := fmt.Fprintf(p.w, "Calories: %d kcal from macros\n", r.Calories)
	return err
}

// Transcript writes one conversation.
func (p *Printer) Transcript(mode models.Mode, msgs []models.Message) error {
	if p.format == FormatJSON {
		return p.JSON(struct {
			Mode     models.Mode      `json:"mode"`
			Messages []models.Message `json:"messages"`
		}{mode, msgs})
	}
	for _, m := range msgs {
		speaker := "You"
		if m.Role == models.RoleAssistant {
			speaker = "Omny"
		}
		if _, err := fmt.Fprintf(p.w, "%s: %s\n\n", speaker, m.Content); err != nil {
			return err
		}
	}
	return nil
}

// SearchResults writes knowledge-base hits.
func (p *Printer) SearchResults(resp *models.SearchResponse) error {
	if p.format == FormatJSON {
		return p.JSON(resp)
	}
	fmt.Fprintf(p.w, "\nFound %d chunks in %dms\n\n", resp.Total, resp.QueryTime)
	for _, r := range resp.Results {
		fmt.Fprintf(p.w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(p.w, "[%s] Rank: %d | Score: %.4f\n", r.Source, r.Rank, r.Score)
		if r.DocumentTitle != "" {
			fmt.Fprintf(p.w, "Source: %s\n", r.DocumentTitle)
		}
		if r.Chunk != nil {
			fmt.Fprintf(p.w, "\n%s\n", TruncateWords(r.Chunk.Content, 40))
		}
		fmt.Fprintln(p.w)
	}
	return nil
}

// Status writes key/value pairs in a stable order.
func (p *Printer) Status(keys []string, values map[string]interface{}) error {
	if p.format == FormatJSON {
		return p.JSON(values)
	}
	width := 0
	for _, k := range keys {
		width = max(width, len(k))
	}
	for _, k := range keys {
		v, ok := values[k]
		if !ok {
			continue
		}
		if _, err := fmt.Fprintf(p.w, "%-*s  %v\n", width+1, k+":", v); err != nil {
			return err
		}
	}
	return nil
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
