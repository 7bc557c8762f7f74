package starlark_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/proofweave/internal/runtime"
	"github.com/aretw0/proofweave/pkg/adapters/starlark"
	"github.com/aretw0/proofweave/pkg/domain"
	"github.com/aretw0/proofweave/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.Evaluator = (*starlark.Evaluator)(nil)

func script(lines ...string) string {
	header := []string{"from estimates.main import *", "from sympy import *", "p = ProofAssistant();"}
	return strings.Join(append(header, lines...), "\n")
}

func TestExecute_Cases(t *testing.T) {
	res, err := starlark.New().Execute(context.Background(), script(
		`x_1 = p.var("real", "x_1");`,
		`x_2 = p.var("real", "x_2");`,
		`p.assume(x_1 + x_2 > 0, "h1");`,
		"p.begin_proof(Or(x_1 > 0, x_2 > 0));",
		`p.use(Cases("h1"));`,
		"if p.current_node: p.next_goal();",
		"if p.current_node: p.next_goal();",
		"p.proof()",
	))
	require.NoError(t, err)

	tree := res.Tree
	require.Len(t, tree.Nodes, 3)
	assert.Equal(t, `Cases("h1")`, tree.Nodes[0].Tactic)
	assert.Equal(t, "x_1: real\nx_2: real\nh1: x_1 + x_2 > 0\n|- Or(x_1 > 0, x_2 > 0)", tree.Nodes[0].Label)
	assert.Equal(t, domain.SorryTactic, tree.Nodes[1].Tactic)
	assert.Contains(t, tree.Nodes[2].Label, "[Cases 2/2]")

	assert.Equal(t, []domain.TreeEdge{
		{Source: "n0", Target: "n1", Label: `Cases("h1")`},
		{Source: "n0", Target: "n2", Label: `Cases("h1")`},
	}, tree.Edges)
	assert.False(t, tree.ProofComplete)
	assert.Equal(t, "Proof incomplete: 2 goal(s) remaining.", res.FinalValue)
	assert.Equal(t, "Starting proof.  Current proof state:", res.Console[0])
}

func TestExecute_ClosingTactic(t *testing.T) {
	p := runtime.InitialProblem()
	s := runtime.NewGraphStore(nil, domain.DirectionTB, runtime.SequenceIDs("id"), p.Goal.Expression)
	g := s.Graph()
	src, _ := g.Source()

	g, _, err := runtime.ApplyTactic(g, src.ID, "Linarith()", false, 1, runtime.SequenceIDs("a"))
	require.NoError(t, err)

	res, err := starlark.New().Execute(context.Background(), runtime.GenerateScript(p, g))
	require.NoError(t, err)

	require.Len(t, res.Tree.Nodes, 1)
	assert.True(t, res.Tree.Nodes[0].SorryFree)
	assert.True(t, res.Tree.ProofComplete)
	assert.Equal(t, "Proof complete!", res.FinalValue)
}

// A generated script run through the dry-run evaluator reconciles into a graph
// that still satisfies every invariant and keeps the user's tactics.
func TestExecute_ReconcileRoundTrip(t *testing.T) {
	p := domain.Problem{
		Variables: []domain.Variable{{Name: "x", Type: "nonneg_real"}, {Name: "y", Type: "nonneg_real"}},
		Goal:      domain.Goal{Expression: "2*x*y <= x**2 + y**2"},
	}
	s := runtime.NewGraphStore(nil, domain.DirectionTB, runtime.SequenceIDs("id"), p.Goal.Expression)
	ids := runtime.SequenceIDs("d")
	g := s.Graph()
	src, _ := g.Source()

	g, split, err := runtime.ApplyTactic(g, src.ID, "SplitGoal()", false, 2, ids)
	require.NoError(t, err)
	g, _, err = runtime.ApplyTactic(g, split.Nodes[0], "Amgm(x**2, y**2)", true, 1, ids)
	require.NoError(t, err)
	g, _, err = runtime.ApplyTactic(g, split.Nodes[1], "Linarith()", false, 1, ids)
	require.NoError(t, err)

	ev := starlark.New()
	res, err := ev.Execute(context.Background(), runtime.GenerateScript(p, g))
	require.NoError(t, err)
	assert.Equal(t, "Amgm(x**2, y**2)", res.Tree.Nodes[1].Tactic)
	assert.False(t, res.Tree.ProofComplete)

	next, report := runtime.Reconcile(g, res.Tree, p.Goal.Expression, runtime.SequenceIDs("r"))
	require.NoError(t, domain.CheckInvariants(next))
	assert.Empty(t, report.Diagnostics)
	assert.Len(t, next.OpenEdges(), 1)

	lemma, ok := next.Edge(next.Outgoing(split.Nodes[0])[0].ID)
	require.True(t, ok)
	assert.True(t, lemma.IsLemma)
	assert.Equal(t, "Amgm(x**2, y**2)", lemma.Tactic)

	// Running the reconciled graph again reports the same tree.
	again, err := ev.Execute(context.Background(), runtime.GenerateScript(p, next))
	require.NoError(t, err)
	assert.Equal(t, res.Tree, again.Tree)
}

func TestExecute_Errors(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   string
	}{
		{name: "syntax", script: script("p.begin_proof(x >"), want: "SyntaxError"},
		{name: "unknown method", script: script("p.begin_proof(x > 0);", "p.explode();"), want: `no method "explode"`},
		{name: "no proof", script: script("p.use(Linarith());"), want: "no proof in progress"},
		{name: "never began", script: script(`x = p.var("real", "x");`), want: "never began"},
		{name: "closed proof", script: script("p.begin_proof(x > 0);", "p.use(Linarith());", "p.use(Linarith());"), want: "no goals remaining"},
		{name: "foreign receiver", script: script("q.begin_proof(x > 0);"), want: "NameError"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := starlark.New().Execute(context.Background(), tt.script)
			var execErr *domain.ExecutionError
			require.True(t, errors.As(err, &execErr), "want ExecutionError, got %v", err)
			assert.Contains(t, execErr.Message, tt.want)
		})
	}
}

func TestExecute_UnknownTacticOpensOneGoal(t *testing.T) {
	res, err := starlark.New().Execute(context.Background(), script(
		"p.begin_proof(P | Q);",
		"p.use(Tauto());",
		"p.proof()",
	))
	require.NoError(t, err)
	require.Len(t, res.Tree.Nodes, 2)
	assert.Equal(t, domain.SorryTactic, res.Tree.Nodes[1].Tactic)
}

func TestExecute_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := starlark.New().Execute(ctx, script("p.begin_proof(x > 0);"))
	assert.ErrorIs(t, err, context.Canceled)
}
