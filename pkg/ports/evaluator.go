package ports

import (
	"context"

	"github.com/aretw0/proofweave/pkg/domain"
)

// Evaluator runs a proof script and reports back the authoritative proof tree.
// A failure reported by the evaluator itself is returned as *domain.ExecutionError;
// any other error means the evaluator could not be reached.
//
// Evaluators that hold resources implement io.Closer; the owner closes them once.
type Evaluator interface {
	Execute(ctx context.Context, script string) (*domain.Result, error)
}

// Layout assigns positions to proof nodes. It must not change anything but positions.
type Layout interface {
	Arrange(nodes []domain.ProofNode, edges []domain.TacticEdge, dir domain.Direction) []domain.ProofNode
}
