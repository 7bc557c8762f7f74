package memory

import "github.com/aretw0/proofweave/pkg/domain"

// Presets returns the built-in exercises. The first one matches the problem a
// fresh workspace starts with.
func Presets() []domain.Problem {
	return []domain.Problem{
		{
			ID:    "linear-bound",
			Title: "Linear bound",
			Variables: []domain.Variable{
				{Name: "x", Type: "nonneg_real"},
				{Name: "y", Type: "nonneg_real"},
				{Name: "z", Type: "nonneg_real"},
			},
			Hypotheses: []domain.Hypothesis{
				{Name: "h1", Expression: "x < 2*y"},
				{Name: "h2", Expression: "y < 3*z + 1"},
			},
			Goal: domain.Goal{Expression: "x < 7 * z + 2"},
		},
		{
			ID:    "linear-impossible",
			Title: "Linear bound without slack",
			Variables: []domain.Variable{
				{Name: "x", Type: "pos_real"},
				{Name: "y", Type: "pos_real"},
				{Name: "z", Type: "pos_real"},
			},
			Hypotheses: []domain.Hypothesis{
				{Name: "h1", Expression: "x < 2*y"},
				{Name: "h2", Expression: "y < 3*z + 1"},
			},
			Goal: domain.Goal{Expression: "x < 7*z"},
		},
		{
			ID:    "case-split",
			Title: "Case split on a disjunction",
			Variables: []domain.Variable{
				{Name: "x_1", Type: "real"},
				{Name: "x_2", Type: "real"},
			},
			Hypotheses: []domain.Hypothesis{
				{Name: "h1", Expression: "x_1 + x_2 > 0"},
			},
			Goal: domain.Goal{Expression: "Or(x_1 > 0, x_2 > 0)"},
		},
		{
			ID:    "bool-cases",
			Title: "Distributing disjunctions",
			Variables: []domain.Variable{
				{Name: "P", Type: "bool"},
				{Name: "Q", Type: "bool"},
				{Name: "R", Type: "bool"},
				{Name: "S", Type: "bool"},
			},
			Hypotheses: []domain.Hypothesis{
				{Name: "h1", Expression: "P | Q"},
				{Name: "h2", Expression: "R | S"},
			},
			Goal: domain.Goal{Expression: "(P & R) | (P & S) | (Q & R) | (Q & S)"},
		},
		{
			ID:    "split-bounds",
			Title: "Splitting conjunctions",
			Variables: []domain.Variable{
				{Name: "x", Type: "real"},
				{Name: "y", Type: "real"},
			},
			Hypotheses: []domain.Hypothesis{
				{Name: "h1", Expression: "(x > -1) & (x < 1)"},
				{Name: "h2", Expression: "(y > -2) & (y < 2)"},
			},
			Goal: domain.Goal{Expression: "(x + y > -3) & (x + y < 3)"},
		},
	}
}
