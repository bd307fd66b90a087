// Package nutrition computes basal metabolic rate and daily macro targets.
// Every function is pure and total: unrecognized enum tokens resolve to a
// documented default instead of failing.
package nutrition

import (
	"strings"

	"github.com/hyperjump/omny/internal/models"
)

// Gender selects the Mifflin-St Jeor sex constant.
type Gender int

const (
	Female Gender = iota
	Male
)

func (g Gender) String() string {
	if g == Male {
		return models.GenderMale
	}
	return models.GenderFemale
}

// Goal selects the carbohydrate factor.
type Goal int

const (
	Maintain Goal = iota
	LoseFat
	BuildMuscle
)

func (g Goal) String() string {
	switch g {
	case LoseFat:
		return models.GoalLoseFat
	case BuildMuscle:
		return models.GoalBuildMuscle
	default:
		return models.GoalMaintain
	}
}

// ParseGender folds a free-form token into Male or Female. Anything that is not
// "male" (any case, surrounding space ignored) is Female; recognized is false
// when the token was neither "male" nor "female".
func ParseGender(s string) (g Gender, recognized bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male":
		return Male, true
	case "female":
		return Female, true
	default:
		return Female, false
	}
}

// ParseGoal accepts display ("Lose Fat") and snake_case ("lose_fat") forms in
// any case. Unknown tokens resolve to Maintain with recognized false.
func ParseGoal(s string) (g Goal, recognized bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "_", " ")
	switch key {
	case "lose fat":
		return LoseFat, true
	case "build muscle":
		return BuildMuscle, true
	case "maintain":
		return Maintain, true
	default:
		return Maintain, false
	}
}

// BMR applies the Mifflin-St Jeor equation.
func BMR(weightKg, heightCm float64, age int, gender string) float64 {
	base := 10*weightKg + 6.25*heightCm - 5*float64(age)
	g, _ := ParseGender(gender)
	if g == Male {
		return base + 5
	}
	return base - 161
}

// MacroTargets are daily gram targets. Never persisted.
type MacroTargets struct {
	Protein int `json:"protein_g"`
	Fat     int `json:"fat_g"`
	Carbs   int `json:"carb_g"`
}

// Calories is the energy total of the targets at 4/4/9 kcal per gram.
func (m MacroTargets) Calories() int {
	return 4*m.Protein + 4*m.Carbs + 9*m.Fat
}

// CarbFactor is grams of carbohydrate per kilogram for a goal.
func CarbFactor(g Goal) float64 {
	switch g {
	case LoseFat:
		return 2.0
	case BuildMuscle:
		return 4.0
	default:
		return 3.0
	}
}

// Macros derives targets from body weight. Values truncate toward zero.
func Macros(weightKg float64, goal string) MacroTargets {
	g, _ := ParseGoal(goal)
	return MacroTargets{
		Protein: int(weightKg * 2.0),
		Fat:     int(weightKg * 0.8),
		Carbs:   int(weightKg * CarbFactor(g)),
	}
}

// Report bundles everything derived from a profile.
type Report struct {
	BMR      float64      `json:"bmr"`
	Macros   MacroTargets `json:"macros"`
	Calories int          `json:"calories"`
	// Unrecognized lists profile fields that fell back to a default branch.
	Unrecognized []string `json:"unrecognized,omitempty"`
}

// Summary computes the metrics report for p.
func Summary(p models.Profile) Report {
	r := Report{
		BMR:    BMR(p.Weight, p.Height, p.Age, p.Gender),
		Macros: Macros(p.Weight, p.Goal),
	}
	r.Calories = r.Macros.Calories()
	if _, ok := ParseGender(p.Gender); !ok {
		r.Unrecognized = append(r.Unrecognized, "gender")
	}
	if _, ok := ParseGoal(p.Goal); !ok {
		r.Unrecognized = append(r.Unrecognized, "goal")
	}
	return r
}
