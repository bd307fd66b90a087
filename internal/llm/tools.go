package llm

import (
	"context"
	"fmt"
)

// MaxToolRounds bounds automatic function calling per Generate call.
const MaxToolRounds = 5

// ToolFunc executes a tool with the model-supplied arguments.
type ToolFunc func(ctx context.Context, args map[string]any) (map[string]any, error)

// Tool is a declared function plus its implementation.
type Tool struct {
	Declaration FunctionDeclaration
	Func        ToolFunc
}

// Toolset is an ordered set of tools available to the model.
type Toolset struct {
	order []string
	tools map[string]Tool
}

// NewToolset returns a toolset holding tools.
func NewToolset(tools ...Tool) *Toolset {
	ts := &Toolset{tools: make(map[string]Tool)}
	for _, t := range tools {
		ts.Register(t)
	}
	return ts
}

// Register adds or replaces a tool by name.
func (ts *Toolset) Register(t Tool) {
	name := t.Declaration.Name
	if _, ok := ts.tools[name]; !ok {
		ts.order = append(ts.order, name)
	}
	ts.tools[name] = t
}

// Len returns the number of tools.
func (ts *Toolset) Len() int {
	if ts == nil {
		return 0
	}
	return len(ts.order)
}

// Declarations returns the function declarations in registration order.
func (ts *Toolset) Declarations() []FunctionDeclaration {
	if ts == nil {
		return nil
	}
	out := make([]FunctionDeclaration, 0, len(ts.order))
	for _, name := range ts.order {
		out = append(out, ts.tools[name].Declaration)
	}
	return out
}

// Call runs the named tool. Unknown tools and tool errors are reported to the
// model as {"error": "..."} so it can recover.
func (ts *Toolset) Call(ctx context.Context, call FunctionCall) (map[string]any, error) {
	t, ok := ts.tools[call.Name]
	if !ok {
		err := fmt.Errorf("unknown function %q", call.Name)
		return map[string]any{"error": err.Error()}, err
	}
	result, err := t.Func(ctx, call.Args)
	if err != nil {
		return map[string]any{"error": err.Error()}, err
	}
	return result, nil
}

// NumberArg reads a numeric argument. JSON numbers arrive as float64.
func NumberArg(args map[string]any, key string) (float64, error) {
	v, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("missing argument %q", key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("argument %q must be a number, got %T", key, v)
	}
}

// StringArg reads a string argument.
func StringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing argument %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string, got %T", key, v)
	}
	return s, nil
}
