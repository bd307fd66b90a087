package coach

import (
	"context"
	"math"

	"github.com/hyperjump/omny/internal/llm"
	"github.com/hyperjump/omny/internal/nutrition"
)

// Tool names the coach model may call.
const (
	ToolCalculateBMR    = "calculate_bmr"
	ToolCalculateMacros = "calculate_macros"
)

// Tools returns the metric calculators exposed to the coach model.
func Tools() *llm.Toolset {
	return llm.NewToolset(
		llm.Tool{
			Declaration: llm.FunctionDeclaration{
				Name:        ToolCalculateBMR,
				Description: "Calculates Basal Metabolic Rate (BMR) using the Mifflin-St Jeor Equation.",
				Parameters: &llm.Schema{
					Type: "object",
					Properties: map[string]*llm.Schema{
						"weight_kg": {Type: "number"},
						"height_cm": {Type: "number"},
						"age":       {Type: "integer"},
						"gender":    {Type: "string"},
					},
					Required: []string{"weight_kg", "height_cm", "age", "gender"},
				},
			},
			Func: calculateBMR,
		},
		llm.Tool{
			Declaration: llm.FunctionDeclaration{
				Name:        ToolCalculateMacros,
				Description: "Returns specific macronutrient targets. Goal: 'Lose Fat', 'Build Muscle', 'Maintain'",
				Parameters: &llm.Schema{
					Type: "object",
					Properties: map[string]*llm.Schema{
						"weight_kg": {Type: "number"},
						"goal":      {Type: "string"},
					},
					Required: []string{"weight_kg", "goal"},
				},
			},
			Func: calculateMacros,
		},
	)
}

func calculateBMR(_ context.Context, args map[string]any) (map[string]any, error) {
	weight, err := llm.NumberArg(args, "weight_kg")
	if err != nil {
		return nil, err
	}
	height, err := llm.NumberArg(args, "height_cm")
	if err != nil {
		return nil, err
	}
	age, err := llm.NumberArg(args, "age")
	if err != nil {
		return nil, err
	}
	gender, err := llm.StringArg(args, "gender")
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"result": nutrition.BMR(weight, height, int(math.Trunc(age)), gender),
	}, nil
}

func calculateMacros(_ context.Context, args map[string]any) (map[string]any, error) {
	weight, err := llm.NumberArg(args, "weight_kg")
	if err != nil {
		return nil, err
	}
	goal, err := llm.StringArg(args, "goal")
	if err != nil {
		return nil, err
	}
	m := nutrition.Macros(weight, goal)
	return map[string]any{
		"protein": m.Protein,
		"fats":    m.Fat,
		"carbs":   m.Carbs,
	}, nil
}
