package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/proofweave/pkg/adapters/memory"
	"github.com/aretw0/proofweave/pkg/domain"
	contract "github.com/aretw0/proofweave/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetLibrary_Contract(t *testing.T) {
	lib := memory.NewPresetLibrary()

	contract.ProblemLibraryContractTest(t, lib, map[string]string{
		"linear-bound": "x < 7 * z + 2",
		"case-split":   "Or(x_1 > 0, x_2 > 0)",
		"split-bounds": "(x + y > -3) & (x + y < 3)",
	})
}

func TestNewLibrary_Rejects(t *testing.T) {
	valid := domain.Problem{ID: "p", Goal: domain.Goal{Expression: "x > 0"}}

	t.Run("missing id", func(t *testing.T) {
		_, err := memory.NewLibrary(domain.Problem{})
		assert.ErrorIs(t, err, domain.ErrInvalidProblem)
	})

	t.Run("duplicate id", func(t *testing.T) {
		_, err := memory.NewLibrary(valid, valid)
		assert.ErrorIs(t, err, domain.ErrInvalidProblem)
	})

	t.Run("bad variable type", func(t *testing.T) {
		bad := valid
		bad.Variables = []domain.Variable{{Name: "x", Type: "complex"}}
		_, err := memory.NewLibrary(bad)
		assert.ErrorIs(t, err, domain.ErrInvalidProblem)
	})
}

func TestLibrary_GetReturnsCopy(t *testing.T) {
	lib := memory.NewPresetLibrary()
	ctx := context.Background()

	p, err := lib.Get(ctx, "linear-bound")
	require.NoError(t, err)
	p.Hypotheses[0].Expression = "tampered"

	again, err := lib.Get(ctx, "linear-bound")
	require.NoError(t, err)
	assert.Equal(t, "x < 2*y", again.Hypotheses[0].Expression)
}
