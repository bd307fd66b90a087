// Package prompt assembles the instructions sent to the model for each mode.
package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hyperjump/omny/internal/models"
)

// CoachInstruction returns the coach role instruction followed by the
// user's profile.
func CoachInstruction(p models.Profile) string {
	var b strings.Builder
	b.WriteString(CoachSystem)
	b.WriteString("\n\nACTIVE USER PROFILE:\n")
	fmt.Fprintf(&b, "- Age: %d\n", p.Age)
	fmt.Fprintf(&b, "- Weight: %skg\n", number(p.Weight))
	fmt.Fprintf(&b, "- Height: %scm\n", number(p.Height))
	fmt.Fprintf(&b, "- Gender: %s\n", p.Gender)
	fmt.Fprintf(&b, "- Goal: %s\n", p.Goal)
	b.WriteString("\nINSTRUCTION: Focus purely on writing the detailed text plan. Do not search for videos.\n")
	return b.String()
}

// GeneralInstruction returns the general-question instruction with the
// retrieved context appended. context is used as given; callers pass the
// retrieval fallback text when nothing was found.
func GeneralInstruction(context string) string {
	return RAGSystem + "\n\n📚 SCIENTIFIC CONTEXT FOUND:\n" + context + "\n"
}

// VisionPrompt returns the menu or photo instruction, followed by the user's
// own question when there is one.
func VisionPrompt(isPDF bool, userText string) string {
	base := VisionPhoto
	if isPDF {
		base = VisionMenu
	}
	if userText = strings.TrimSpace(userText); userText != "" {
		base += "\n\nUSER QUESTION/CONTEXT: '" + userText + "'"
	}
	return base
}

// number prints a measurement without a trailing ".0".
func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
