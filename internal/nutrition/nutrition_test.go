package nutrition

import (
	"math"
	"testing"

	"github.com/hyperjump/omny/internal/models"
)

func TestBMR(t *testing.T) {
	tests := []struct {
		name   string
		weight float64
		height float64
		age    int
		gender string
		want   float64
	}{
		{"male", 70, 175, 30, "male", 1648.75},
		{"female", 60, 160, 25, "female", 1314},
		{"upper case male", 70, 175, 30, "MALE", 1648.75},
		{"display form", 70, 175, 30, "Male", 1648.75},
		{"unknown takes female branch", 70, 175, 30, "other", 1482.75},
		{"empty takes female branch", 70, 175, 30, "", 1482.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BMR(tt.weight, tt.height, tt.age, tt.gender)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("BMR() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMacros(t *testing.T) {
	tests := []struct {
		name   string
		weight float64
		goal   string
		want   MacroTargets
	}{
		{"lose fat", 70, "Lose Fat", MacroTargets{Protein: 140, Fat: 56, Carbs: 140}},
		{"build muscle", 70, "Build Muscle", MacroTargets{Protein: 140, Fat: 56, Carbs: 280}},
		{"maintain", 70, "Maintain", MacroTargets{Protein: 140, Fat: 56, Carbs: 210}},
		{"unknown goal", 70, "Unknown", MacroTargets{Protein: 140, Fat: 56, Carbs: 210}},
		{"snake case", 80, "build_muscle", MacroTargets{Protein: 160, Fat: 64, Carbs: 320}},
		{"truncates", 70.9, "Lose Fat", MacroTargets{Protein: 141, Fat: 56, Carbs: 141}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Macros(tt.weight, tt.goal); got != tt.want {
				t.Errorf("Macros() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMacros_TruncationProperty(t *testing.T) {
	for w := 40.0; w <= 200.0; w += 0.37 {
		m := Macros(w, "Lose Fat")
		if m.Protein != int(math.Floor(w*2.0)) || m.Carbs != int(math.Floor(w*2.0)) || m.Fat != int(math.Floor(w*0.8)) {
			t.Fatalf("weight %v: got %+v", w, m)
		}
	}
}

func TestParseGoal(t *testing.T) {
	tests := []struct {
		in     string
		want   Goal
		wantOK bool
	}{
		{"Lose Fat", LoseFat, true},
		{"lose_fat", LoseFat, true},
		{"LOSE FAT", LoseFat, true},
		{" Build Muscle ", BuildMuscle, true},
		{"maintain", Maintain, true},
		{"bulk", Maintain, false},
	}
	for _, tt := range tests {
		got, ok := ParseGoal(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseGoal(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseGender(t *testing.T) {
	if g, ok := ParseGender("FEMALE"); g != Female || !ok {
		t.Errorf("ParseGender(FEMALE) = %v, %v", g, ok)
	}
	if g, ok := ParseGender("robot"); g != Female || ok {
		t.Errorf("ParseGender(robot) = %v, %v", g, ok)
	}
	if Male.String() != "Male" || BuildMuscle.String() != "Build Muscle" {
		t.Error("display names changed")
	}
}

func TestSummary(t *testing.T) {
	r := Summary(models.Profile{Age: 30, Weight: 70, Height: 175, Gender: "Male", Goal: "Lose Fat"})
	if r.BMR != 1648.75 {
		t.Errorf("BMR = %v", r.BMR)
	}
	// 4*140 + 4*140 + 9*56
	if r.Calories != 1624 {
		t.Errorf("Calories = %d, want 1624", r.Calories)
	}
	if len(r.Unrecognized) != 0 {
		t.Errorf("Unrecognized = %v", r.Unrecognized)
	}

	r = Summary(models.Profile{Age: 30, Weight: 70, Height: 175, Gender: "x", Goal: "y"})
	if len(r.Unrecognized) != 2 {
		t.Errorf("Unrecognized = %v, want gender and goal", r.Unrecognized)
	}
}
