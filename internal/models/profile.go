// Package models defines the data shared across Omny: the user profile,
// chat transcripts and knowledge documents.
package models

import "fmt"

// Input-boundary ranges for profile fields.
const (
	MinAge    = 16
	MaxAge    = 90
	MinWeight = 40.0
	MaxWeight = 200.0
	MinHeight = 120.0
	MaxHeight = 220.0
)

// Display forms persisted in user_profile.json.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"

	GoalLoseFat     = "Lose Fat"
	GoalBuildMuscle = "Build Muscle"
	GoalMaintain    = "Maintain"
)

// Profile is the single stored user profile. Gender and goal keep their display
// form; the metrics engine parses them leniently.
type Profile struct {
	Age    int     `json:"age"`
	Weight float64 `json:"weight"`
	Height float64 `json:"height"`
	Gender string  `json:"gender"`
	Goal   string  `json:"goal"`
}

// DefaultProfile is used until the user saves one.
func DefaultProfile() Profile {
	return Profile{
		Age:    25,
		Weight: 75.0,
		Height: 175,
		Gender: GenderMale,
		Goal:   GoalLoseFat,
	}
}

// Validate enforces the domain ranges accepted from users. Empty gender and
// goal are filled from the default profile.
func (p *Profile) Validate() error {
	if p.Age < MinAge || p.Age > MaxAge {
		return fmt.Errorf("age must be between %d and %d, got %d", MinAge, MaxAge, p.Age)
	}
	if p.Weight < MinWeight || p.Weight > MaxWeight {
		return fmt.Errorf("weight must be between %.0f and %.0f kg, got %g", MinWeight, MaxWeight, p.Weight)
	}
	if p.Height < MinHeight || p.Height > MaxHeight {
		return fmt.Errorf("height must be between %.0f and %.0f cm, got %g", MinHeight, MaxHeight, p.Height)
	}
	def := DefaultProfile()
	if p.Gender == "" {
		p.Gender = def.Gender
	}
	if p.Goal == "" {
		p.Goal = def.Goal
	}
	return nil
}
