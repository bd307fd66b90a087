package prompt

import (
	"strings"
	"testing"

	"github.com/hyperjump/omny/internal/models"
)

func TestCoachInstruction(t *testing.T) {
	p := models.Profile{Age: 30, Weight: 82.5, Height: 180, Gender: models.GenderMale, Goal: models.GoalBuildMuscle}
	got := CoachInstruction(p)

	if !strings.HasPrefix(got, CoachSystem) {
		t.Error("instruction should start with the coach role text")
	}
	for _, want := range []string{
		"ACTIVE USER PROFILE:",
		"- Age: 30\n",
		"- Weight: 82.5kg\n",
		"- Height: 180cm\n",
		"- Gender: Male\n",
		"- Goal: Build Muscle\n",
		"INSTRUCTION: Focus purely on writing the detailed text plan.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("instruction missing %q", want)
		}
	}
}

func TestGeneralInstruction(t *testing.T) {
	got := GeneralInstruction("Protein 1.6 g/kg.\n\nSleep 8 h.")
	if !strings.HasPrefix(got, RAGSystem) {
		t.Error("instruction should start with the RAG role text")
	}
	if !strings.Contains(got, "SCIENTIFIC CONTEXT FOUND:\nProtein 1.6 g/kg.\n\nSleep 8 h.") {
		t.Errorf("context block not found in %q", got)
	}
}

func TestVisionPrompt(t *testing.T) {
	tests := []struct {
		name     string
		isPDF    bool
		text     string
		base     string
		question string
	}{
		{"photo without text", false, "", VisionPhoto, ""},
		{"photo with text", false, "is this post-workout friendly?", VisionPhoto, "\n\nUSER QUESTION/CONTEXT: 'is this post-workout friendly?'"},
		{"menu with text", true, "low carb please", VisionMenu, "\n\nUSER QUESTION/CONTEXT: 'low carb please'"},
		{"blank text ignored", true, "   ", VisionMenu, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VisionPrompt(tt.isPDF, tt.text)
			if got != tt.base+tt.question {
				t.Errorf("VisionPrompt() = %q", got)
			}
		})
	}
}
