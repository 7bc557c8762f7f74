package runtime

import (
	"testing"

	"github.com/aretw0/proofweave/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func edgeBetween(t *testing.T, g domain.Graph, source, target string) domain.TacticEdge {
	t.Helper()
	for _, e := range g.Edges {
		if e.Source == source && e.Target == target {
			return e
		}
	}
	t.Fatalf("no edge %s -> %s", source, target)
	return domain.TacticEdge{}
}

func TestReconcile_RoundTripKeepsUserTactic(t *testing.T) {
	s := newStore(t)
	g := s.Graph()
	src := sourceID(t, g)
	g.Nodes[0].Note = "start"

	g, app, err := ApplyTactic(g, src, `SplitHyp("h1")`, false, 1, SequenceIDs("a"))
	require.NoError(t, err)
	applied := edgeBetween(t, g, src, app.Nodes[0])

	tree := domain.ProofTree{
		Nodes: []domain.TreeNode{
			{ID: "n0", Label: "x < 2*y |- x < 7*z + 2", Tactic: "SplitHyp(h1)"},
			{ID: "n1", Label: "split state", Tactic: domain.SorryTactic},
		},
		Edges: []domain.TreeEdge{{Source: "n0", Target: "n1", Label: "SplitHyp(h1)"}},
	}

	next, report := Reconcile(g, tree, "goal expr", SequenceIDs("r"))
	require.NoError(t, domain.CheckInvariants(next))
	assert.Equal(t, 1, report.Matched)
	assert.Empty(t, report.Diagnostics)

	e := edgeBetween(t, next, src, app.Nodes[0])
	assert.Equal(t, applied.ID, e.ID)
	assert.Equal(t, `SplitHyp("h1")`, e.Tactic)
	assert.Equal(t, applied.ResolutionID, e.ResolutionID)
	assert.True(t, e.Resolved)

	root, ok := next.Node(src)
	require.True(t, ok)
	assert.Equal(t, "start", root.Note)
	assert.Equal(t, domain.NodeSource, root.Type)
	assert.False(t, root.Deletable)

	child, ok := next.Node(app.Nodes[0])
	require.True(t, ok)
	assert.Equal(t, "split state", child.Label)
	assert.True(t, next.IsOpenLeaf(child.ID))

	goal, ok := next.Node(domain.GoalNodeID)
	require.True(t, ok)
	assert.Equal(t, "goal expr", goal.Label)

	// a second run over the reconciled graph is a fixed point
	again, report := Reconcile(next, tree, "goal expr", SequenceIDs("r2"))
	assert.Equal(t, next.Edges, again.Edges)
	assert.Equal(t, 1, report.Matched)
}

func TestReconcile_AdoptsPendingEdge(t *testing.T) {
	s := newStore(t)
	g := s.Graph()
	src := sourceID(t, g)

	// the editor opened one branch, the evaluator reports two
	g, app, err := ApplyTactic(g, src, `Cases("h1")`, false, 1, SequenceIDs("a"))
	require.NoError(t, err)

	tree := domain.ProofTree{
		Nodes: []domain.TreeNode{
			{ID: "n0", Label: "root", Tactic: "Cases(h1)"},
			{ID: "n1", Label: "left", Tactic: domain.SorryTactic},
			{ID: "n2", Label: "right", Tactic: domain.SorryTactic},
		},
		Edges: []domain.TreeEdge{
			{Source: "n0", Target: "n1", Label: "Cases(h1)"},
			{Source: "n0", Target: "n2", Label: "Cases(h1)"},
		},
	}

	next, report := Reconcile(g, tree, "g", SequenceIDs("r"))
	require.NoError(t, domain.CheckInvariants(next))
	assert.Equal(t, 2, report.Adopted)
	assert.Empty(t, report.Diagnostics)

	out := next.Outgoing(src)
	require.Len(t, out, 2)
	for _, e := range out {
		assert.Equal(t, `Cases("h1")`, e.Tactic)
		assert.Equal(t, app.ResolutionID, e.ResolutionID)
		assert.Equal(t, e.Source+"_"+e.Target, e.ID)
	}
	assert.Len(t, next.OpenEdges(), 2)
}

func TestReconcile_AdoptsMultiBranchApplication(t *testing.T) {
	s := newStore(t)
	g := s.Graph()
	src := sourceID(t, g)

	// Cases opens two branches in the editor, the evaluator reports three
	g, app, err := ApplyTactic(g, src, `Cases("h1")`, false, 2, SequenceIDs("a"))
	require.NoError(t, err)
	require.Len(t, app.Nodes, 2)

	tree := domain.ProofTree{
		Nodes: []domain.TreeNode{
			{ID: "n0", Label: "root", Tactic: "Cases(h1)"},
			{ID: "n1", Label: "first", Tactic: domain.SorryTactic},
			{ID: "n2", Label: "second", Tactic: domain.SorryTactic},
			{ID: "n3", Label: "third", Tactic: domain.SorryTactic},
		},
		Edges: []domain.TreeEdge{
			{Source: "n0", Target: "n1", Label: "Cases(h1)"},
			{Source: "n0", Target: "n2", Label: "Cases(h1)"},
			{Source: "n0", Target: "n3", Label: "Cases(h1)"},
		},
	}

	next, report := Reconcile(g, tree, "g", SequenceIDs("r"))
	require.NoError(t, domain.CheckInvariants(next))
	assert.Equal(t, 3, report.Adopted)
	assert.Zero(t, report.Fallback)
	assert.Empty(t, report.Diagnostics)

	out := next.Outgoing(src)
	require.Len(t, out, 3)
	for _, e := range out {
		assert.Equal(t, `Cases("h1")`, e.Tactic)
		assert.Equal(t, app.ResolutionID, e.ResolutionID)
	}
}

func TestReconcile_NewStateWithoutPendingIsNotAmbiguous(t *testing.T) {
	s := newStore(t)
	g := s.Graph()
	src := sourceID(t, g)

	// nothing is waiting: the evaluator opened a state on its own
	tree := domain.ProofTree{
		Nodes: []domain.TreeNode{
			{ID: "n0", Label: "root", Tactic: "SimpAll()"},
			{ID: "n1", Label: "simplified", Tactic: domain.SorryTactic},
		},
		Edges: []domain.TreeEdge{{Source: "n0", Target: "n1", Label: "SimpAll()"}},
	}

	next, report := Reconcile(g, tree, "g", SequenceIDs("r"))
	require.NoError(t, domain.CheckInvariants(next))
	assert.Equal(t, 1, report.Fallback)
	assert.Empty(t, report.Diagnostics)
	require.Len(t, next.Outgoing(src), 1)
	assert.Equal(t, "SimpAll()", next.Outgoing(src)[0].Tactic)
}

func TestReconcile_AmbiguousFallsBackWithDiagnostic(t *testing.T) {
	ids := SequenceIDs("a")
	s := newStore(t)
	g := s.Graph()
	src := sourceID(t, g)

	g, split, err := ApplyTactic(g, src, "SplitGoal()", false, 2, ids)
	require.NoError(t, err)
	for i := range g.Edges {
		if g.Edges[i].ResolutionID == split.ResolutionID {
			g.Edges[i].Resolved = true
		}
	}
	g, left, err := ApplyTactic(g, split.Nodes[0], "SimpAll()", false, 1, ids)
	require.NoError(t, err)
	g, _, err = ApplyTactic(g, split.Nodes[1], `Cases("h2")`, false, 1, ids)
	require.NoError(t, err)

	tree := domain.ProofTree{
		Nodes: []domain.TreeNode{
			{ID: "n0", Tactic: "SplitGoal()"},
			{ID: "n1", Tactic: "SimpAll()"},
			{ID: "n2", Tactic: domain.SorryTactic},
			{ID: "n3", Tactic: "Cases(h2)"},
			{ID: "n4", Tactic: domain.SorryTactic},
			{ID: "n5", Tactic: domain.SorryTactic},
		},
		Edges: []domain.TreeEdge{
			{Source: "n1", Target: "n2", Label: "SimpAll()"},
			{Source: "n0", Target: "n1", Label: "SplitGoal()"},
			{Source: "n3", Target: "n4", Label: "Cases(h2)"},
			{Source: "n3", Target: "n5", Label: "Cases(h2)"},
			{Source: "n0", Target: "n3", Label: "SplitGoal()"},
		},
	}

	next, report := Reconcile(g, tree, "g", SequenceIDs("r"))
	require.NoError(t, domain.CheckInvariants(next))
	assert.Equal(t, 3, report.Matched)
	assert.Equal(t, 2, report.Fallback)
	require.Len(t, report.Diagnostics, 2)
	assert.Contains(t, report.Diagnostics[0].Reason, "2 tactic applications")

	// the confirmed branch keeps its user tactic
	assert.Equal(t, "SimpAll()", edgeBetween(t, next, split.Nodes[0], left.Nodes[0]).Tactic)

	// the ambiguous branch falls back to the evaluator label, as one group
	out := next.Outgoing(split.Nodes[1])
	require.Len(t, out, 2)
	assert.Equal(t, "Cases(h2)", out[0].Tactic)
	assert.Equal(t, out[0].ResolutionID, out[1].ResolutionID)
}

func TestReconcile_TerminalEdges(t *testing.T) {
	t.Run("keeps closing tactic", func(t *testing.T) {
		s := newStore(t)
		g := s.Graph()
		src := sourceID(t, g)
		g, app, err := ApplyTactic(g, src, "Linarith(verbose=True)", false, 1, SequenceIDs("a"))
		require.NoError(t, err)

		tree := domain.ProofTree{
			Nodes:         []domain.TreeNode{{ID: "n0", Label: "done", Tactic: "Linarith()", SorryFree: true}},
			ProofComplete: true,
		}
		next, _ := Reconcile(g, tree, "g", SequenceIDs("r"))
		require.NoError(t, domain.CheckInvariants(next))

		assert.Len(t, next.Nodes, 2)
		e := edgeBetween(t, next, src, domain.GoalNodeID)
		assert.Equal(t, "Linarith(verbose=True)", e.Tactic)
		assert.Equal(t, app.ResolutionID, e.ResolutionID)
		assert.False(t, e.Animated)
		assert.True(t, next.Complete())
	})

	t.Run("evaluator label then win", func(t *testing.T) {
		g := domain.Graph{
			Nodes: []domain.ProofNode{{ID: "root", Type: domain.NodeSource}, domain.NewGoalNode("g")},
			Edges: []domain.TacticEdge{domain.NewSorryEdge("s", "root", "")},
		}
		tree := domain.ProofTree{Nodes: []domain.TreeNode{{ID: "n0", Tactic: "SimpAll()", SorryFree: true}}}
		next, _ := Reconcile(g, tree, "g", SequenceIDs("r"))
		assert.Equal(t, "SimpAll()", edgeBetween(t, next, "root", domain.GoalNodeID).Tactic)

		tree.Nodes[0].Tactic = ""
		next, _ = Reconcile(g, tree, "g", SequenceIDs("r"))
		assert.Equal(t, domain.WinTactic, edgeBetween(t, next, "root", domain.GoalNodeID).Tactic)
	})
}

func TestReconcile_EmptyTree(t *testing.T) {
	s := newStore(t)
	g := s.Graph()
	next, report := Reconcile(g, domain.ProofTree{}, "g", SequenceIDs("r"))
	assert.Equal(t, g, next)
	require.Len(t, report.Diagnostics, 1)
}
