package domain

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Variable is a typed free variable of the problem. An empty name is skipped
// by the code generator.
type Variable struct {
	Name string `json:"name" yaml:"name" mapstructure:"name"`
	Type string `json:"type" yaml:"type" mapstructure:"type" validate:"required,oneof=real pos_real nonneg_real int pos_int nonneg_int bool"`
}

// Hypothesis is a named assumption. An empty expression is skipped by the code
// generator.
type Hypothesis struct {
	Name       string `json:"name" yaml:"name" mapstructure:"name"`
	Expression string `json:"expression" yaml:"expression" mapstructure:"expression"`
}

// Goal is the statement to prove.
type Goal struct {
	Expression string `json:"expression" yaml:"expression" mapstructure:"expression"`
}

// Problem is the statement a proof is built for. Expressions are carried as
// opaque text; only the evaluator interprets them.
type Problem struct {
	ID         string       `json:"id,omitempty" yaml:"id,omitempty" mapstructure:"id"`
	Title      string       `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title"`
	Variables  []Variable   `json:"variables" yaml:"variables" mapstructure:"variables" validate:"dive"`
	Hypotheses []Hypothesis `json:"hypotheses" yaml:"hypotheses" mapstructure:"hypotheses"`
	Goal       Goal         `json:"goal" yaml:"goal" mapstructure:"goal"`
}

// Validate checks the variable types.
func (p Problem) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProblem, err)
	}
	return nil
}

// Clone returns a deep copy of the problem.
func (p Problem) Clone() Problem {
	out := p
	out.Variables = append([]Variable(nil), p.Variables...)
	out.Hypotheses = append([]Hypothesis(nil), p.Hypotheses...)
	return out
}
