package runtime

import "github.com/aretw0/proofweave/pkg/domain"

// InitialProblem is the problem a new workspace starts with.
func InitialProblem() domain.Problem {
	return domain.Problem{
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
	}
}
