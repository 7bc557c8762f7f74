package ports

import (
	"context"

	"github.com/aretw0/proofweave/pkg/domain"
)

// ProblemLibrary defines where preset problems come from.
// This allows the storage layer (Loam, Memory) to be decoupled.
type ProblemLibrary interface {
	// Get retrieves a problem by id.
	// Returns domain.ErrProblemNotFound if no such problem exists.
	Get(ctx context.Context, id string) (domain.Problem, error)

	// List returns every problem, ordered by id.
	List(ctx context.Context) ([]domain.Problem, error)
}
