package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/aretw0/proofweave/pkg/domain"
)

// Library implements ports.ProblemLibrary over a fixed set of problems.
type Library struct {
	problems map[string]domain.Problem
}

// NewLibrary creates a library from the given problems. Every problem needs a
// unique id and must pass validation.
func NewLibrary(problems ...domain.Problem) (*Library, error) {
	data := make(map[string]domain.Problem, len(problems))
	for _, p := range problems {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: problem missing id", domain.ErrInvalidProblem)
		}
		if _, dup := data[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate problem id %q", domain.ErrInvalidProblem, p.ID)
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("problem %s: %w", p.ID, err)
		}
		data[p.ID] = p.Clone()
	}
	return &Library{problems: data}, nil
}

// NewPresetLibrary returns a library holding the built-in exercises.
func NewPresetLibrary() *Library {
	lib, err := NewLibrary(Presets()...)
	if err != nil {
		panic(fmt.Sprintf("memory: invalid preset problems: %v", err))
	}
	return lib
}

// Get retrieves a problem by id.
func (l *Library) Get(ctx context.Context, id string) (domain.Problem, error) {
	p, ok := l.problems[id]
	if !ok {
		return domain.Problem{}, fmt.Errorf("%w: %s", domain.ErrProblemNotFound, id)
	}
	return p.Clone(), nil
}

// List returns every problem, ordered by id.
func (l *Library) List(ctx context.Context) ([]domain.Problem, error) {
	out := make([]domain.Problem, 0, len(l.problems))
	for _, p := range l.problems {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
