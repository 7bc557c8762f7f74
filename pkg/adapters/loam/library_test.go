package loam

import (
	"context"
	"testing"

	"github.com/aretw0/loam"

	"github.com/aretw0/proofweave/internal/testutils"
	"github.com/aretw0/proofweave/pkg/domain"
	"github.com/aretw0/proofweave/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const casesDoc = `---
id: cases
title: Case analysis
variables:
  - name: x_1
    type: real
  - name: x_2
    type: real
hypotheses:
  - name: h1
    expression: x_1 + x_2 > 0
goal: Or(x_1 > 0, x_2 > 0)
---
Split on h1 and close each branch with linear arithmetic.`

const splitDoc = `---
variables:
  - name: x
    type: nonneg_real
  - name: y
    type: nonneg_real
hypotheses:
  - name: h1
    expression: (x > 1) & (y > 1)
goal: (x > 0) & (y > 0)
---
ID is implied from filename`

func TestLibrary_Contract(t *testing.T) {
	_, repo := testutils.SetupProblemRepo(t, map[string]string{
		"cases.md": casesDoc,
		"split.md": splitDoc,
	})

	lib := New(loam.NewTypedRepository[ProblemMetadata](repo))
	tests.ProblemLibraryContractTest(t, lib, map[string]string{
		"cases": "Or(x_1 > 0, x_2 > 0)",
		"split": "(x > 0) & (y > 0)",
	})
}

func TestLibrary_DecodesMetadata(t *testing.T) {
	_, repo := testutils.SetupProblemRepo(t, map[string]string{"cases.md": casesDoc})

	lib := New(loam.NewTypedRepository[ProblemMetadata](repo))
	p, err := lib.Get(context.Background(), "cases")
	require.NoError(t, err)

	assert.Equal(t, "Case analysis", p.Title)
	assert.Equal(t, []domain.Variable{{Name: "x_1", Type: "real"}, {Name: "x_2", Type: "real"}}, p.Variables)
	assert.Equal(t, []domain.Hypothesis{{Name: "h1", Expression: "x_1 + x_2 > 0"}}, p.Hypotheses)
}

func TestLibrary_RejectsInvalidProblem(t *testing.T) {
	_, repo := testutils.SetupProblemRepo(t, map[string]string{"bad.md": `---
variables:
  - name: z
    type: quaternion
goal: z > 0
---
`})

	lib := New(loam.NewTypedRepository[ProblemMetadata](repo))
	_, err := lib.List(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidProblem)
}

func TestLibrary_DetectsCollisions(t *testing.T) {
	_, repo := testutils.SetupProblemRepo(t, map[string]string{
		"foo.md": "---\nid: foo\ngoal: x > 0\n---\n",
		"foo.json": `{
  "id": "foo",
  "goal": "x > 0"
}`,
	})

	lib := New(loam.NewTypedRepository[ProblemMetadata](repo))
	_, err := lib.List(context.Background())
	assert.ErrorContains(t, err, "collision detected")
}
