package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/proofweave/pkg/domain"
	"github.com/aretw0/proofweave/pkg/ports"
)

// ProblemLibraryContractTest is a reusable test suite that verifies if an adapter
// complies with ports.ProblemLibrary. want maps problem ids to their goal expression.
func ProblemLibraryContractTest(t *testing.T, lib ports.ProblemLibrary, want map[string]string) {
	t.Helper()
	ctx := context.Background()

	t.Run("Get_Success", func(t *testing.T) {
		for id, goal := range want {
			p, err := lib.Get(ctx, id)
			if err != nil {
				t.Fatalf("unexpected error getting problem %s: %v", id, err)
			}
			if p.ID != id {
				t.Errorf("id mismatch: got %q, want %q", p.ID, id)
			}
			if p.Goal.Expression != goal {
				t.Errorf("goal mismatch for %s. got %q, want %q", id, p.Goal.Expression, goal)
			}
		}
	})

	t.Run("Get_NotFound", func(t *testing.T) {
		_, err := lib.Get(ctx, "non-existent-problem")
		if !errors.Is(err, domain.ErrProblemNotFound) {
			t.Errorf("expected ErrProblemNotFound, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		problems, err := lib.List(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing problems: %v", err)
		}
		found := make(map[string]bool)
		for i, p := range problems {
			found[p.ID] = true
			if i > 0 && problems[i-1].ID > p.ID {
				t.Errorf("list not ordered: %q before %q", problems[i-1].ID, p.ID)
			}
		}
		for id := range want {
			if !found[id] {
				t.Errorf("expected %q in list", id)
			}
		}
	})
}
