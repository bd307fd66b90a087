package models

import "testing"

func TestProfile_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Profile)
		wantErr bool
	}{
		{"default is valid", func(p *Profile) {}, false},
		{"age too low", func(p *Profile) { p.Age = 15 }, true},
		{"age upper bound", func(p *Profile) { p.Age = 90 }, false},
		{"age too high", func(p *Profile) { p.Age = 91 }, true},
		{"weight too low", func(p *Profile) { p.Weight = 39.9 }, true},
		{"weight too high", func(p *Profile) { p.Weight = 200.5 }, true},
		{"height too low", func(p *Profile) { p.Height = 119 }, true},
		{"height upper bound", func(p *Profile) { p.Height = 220 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultProfile()
			tt.mutate(&p)
			if err := p.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestProfile_ValidateFillsEnums(t *testing.T) {
	p := Profile{Age: 30, Weight: 70, Height: 175}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if p.Gender != GenderMale || p.Goal != GoalLoseFat {
		t.Errorf("got gender=%q goal=%q, want defaults", p.Gender, p.Goal)
	}
}

func TestTranscripts(t *testing.T) {
	tr := NewTranscripts()
	if len(tr.Coach) != 1 || tr.Coach[0].Content != CoachGreeting {
		t.Fatalf("coach seed = %+v", tr.Coach)
	}
	if len(tr.General) != 1 || tr.General[0].Role != RoleAssistant {
		t.Fatalf("general seed = %+v", tr.General)
	}

	tr.Append(ModeCoach, RoleUser, "make me a plan")
	if got := tr.Messages(ModeCoach); len(got) != 2 || got[1].Content != "make me a plan" {
		t.Errorf("Messages(coach) = %+v", got)
	}
	if got := tr.Messages(Mode("other")); got != nil {
		t.Errorf("unknown mode should be nil, got %+v", got)
	}

	clone := tr.Clone()
	clone.Coach[0].Content = "changed"
	if tr.Coach[0].Content != CoachGreeting {
		t.Error("Clone shares backing array with original")
	}
}
