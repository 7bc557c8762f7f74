package runtime

import (
	"math/rand/v2"
	"testing"

	"github.com/aretw0/proofweave/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *GraphStore {
	t.Helper()
	return NewGraphStore(nil, domain.DirectionTB, SequenceIDs("id"), "goal expr")
}

func sourceID(t *testing.T, g domain.Graph) string {
	t.Helper()
	src, ok := g.Source()
	require.True(t, ok, "graph has no source")
	return src.ID
}

func TestApplyTactic(t *testing.T) {
	s := newStore(t)
	g := s.Graph()
	src := sourceID(t, g)

	next, app, err := ApplyTactic(g, src, `Cases("h1")`, false, 2, SequenceIDs("t"))
	require.NoError(t, err)
	require.NoError(t, domain.CheckInvariants(next))

	assert.Len(t, app.Nodes, 2)
	assert.Len(t, app.Edges, 2)
	assert.Len(t, next.Nodes, 4)

	out := next.Outgoing(src)
	require.Len(t, out, 2)
	for _, e := range out {
		assert.Equal(t, `Cases("h1")`, e.Tactic)
		assert.Equal(t, app.ResolutionID, e.ResolutionID)
		assert.False(t, e.Resolved)
		assert.True(t, e.Pending())
		assert.True(t, next.IsOpenLeaf(e.Target))
	}
	assert.False(t, next.IsOpenLeaf(src))

	// the input graph is untouched
	assert.True(t, g.IsOpenLeaf(src))
}

func TestApplyTactic_NotOpenLeaf(t *testing.T) {
	s := newStore(t)
	g := s.Graph()
	src := sourceID(t, g)

	next, _, err := ApplyTactic(g, src, "SimpAll()", false, 1, SequenceIDs("t"))
	require.NoError(t, err)

	_, _, err = ApplyTactic(next, src, "SimpAll()", false, 1, SequenceIDs("u"))
	assert.ErrorIs(t, err, domain.ErrNotOpenLeaf)

	_, _, err = ApplyTactic(next, domain.GoalNodeID, "SimpAll()", false, 1, SequenceIDs("u"))
	assert.ErrorIs(t, err, domain.ErrNotOpenLeaf)

	_, _, err = ApplyTactic(next, "missing", "SimpAll()", false, 1, SequenceIDs("u"))
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
}

func TestRemoveEdge_CascadesGroup(t *testing.T) {
	s := newStore(t)
	g := s.Graph()
	src := sourceID(t, g)
	ids := SequenceIDs("t")

	g, split, err := ApplyTactic(g, src, `Cases("h1")`, false, 3, ids)
	require.NoError(t, err)
	// deepen the second branch so the cascade has something to follow
	g, deeper, err := ApplyTactic(g, split.Nodes[1], "SimpAll()", false, 1, ids)
	require.NoError(t, err)

	next, rm, err := RemoveEdge(g, split.Edges[2], ids)
	require.NoError(t, err)
	require.NoError(t, domain.CheckInvariants(next))

	assert.Equal(t, src, rm.Source)
	assert.ElementsMatch(t, append(split.Nodes, deeper.Nodes...), rm.Nodes)
	for _, id := range split.Edges {
		assert.Contains(t, rm.Edges, id)
	}
	assert.Len(t, next.Nodes, 2)
	out := next.Outgoing(src)
	require.Len(t, out, 1)
	assert.True(t, out[0].IsOpen())
	assert.Equal(t, rm.Reattached, out[0].ID)
}

func TestRemoveEdge_Errors(t *testing.T) {
	s := newStore(t)
	g := s.Graph()

	_, _, err := RemoveEdge(g, "missing", SequenceIDs("t"))
	assert.ErrorIs(t, err, domain.ErrEdgeNotFound)

	_, _, err = RemoveEdge(g, g.OpenEdges()[0].ID, SequenceIDs("t"))
	assert.ErrorIs(t, err, domain.ErrSentinelEdge)
}

func TestRemoveEdge_WithoutResolutionID(t *testing.T) {
	g := domain.Graph{
		Nodes: []domain.ProofNode{{ID: "root", Type: domain.NodeSource}, domain.NewGoalNode("g")},
		Edges: []domain.TacticEdge{{ID: "root_goal", Source: "root", Target: domain.GoalNodeID, Tactic: "Linarith()", Resolved: true}},
	}
	next, rm, err := RemoveEdge(g, "root_goal", SequenceIDs("t"))
	require.NoError(t, err)
	assert.Equal(t, []string{"root_goal"}, rm.Edges)
	assert.Empty(t, rm.Nodes)
	require.NoError(t, domain.CheckInvariants(next))
	assert.True(t, next.IsOpenLeaf("root"))
}

func TestInvariants_RandomEdits(t *testing.T) {
	tactics := []string{`Cases("h1")`, "SplitGoal()", "SimpAll()", "Linarith()", `SplitHyp("h2")`}
	branches := []int{2, 2, 1, 1, 1}

	for seed := uint64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewPCG(seed, 42))
		s := newStore(t)
		ids := SequenceIDs("r")
		g := s.Graph()

		for step := 0; step < 60; step++ {
			var removable []domain.TacticEdge
			for _, e := range g.Edges {
				if !e.IsOpen() {
					removable = append(removable, e)
				}
			}
			open := g.OpenEdges()

			var err error
			if len(removable) > 0 && (len(open) == 0 || rng.IntN(3) == 0) {
				e := removable[rng.IntN(len(removable))]
				g, _, err = RemoveEdge(g, e.ID, ids)
			} else {
				leaf := open[rng.IntN(len(open))].Source
				i := rng.IntN(len(tactics))
				g, _, err = ApplyTactic(g, leaf, tactics[i], false, branches[i], ids)
			}
			require.NoError(t, err)
			require.NoError(t, domain.CheckInvariants(g), "seed %d step %d", seed, step)
		}
	}
}

func TestResetToInitial_Boundary(t *testing.T) {
	s := newStore(t)
	ids := SequenceIDs("b")
	g := s.Graph()
	for i := 0; i < 10; i++ {
		leaf := g.OpenEdges()[0].Source
		var err error
		g, _, err = ApplyTactic(g, leaf, "SplitGoal()", false, 2, ids)
		require.NoError(t, err)
	}
	s.Replace(g.Nodes, g.Edges)
	require.Greater(t, len(s.Nodes()), 10)

	oldSource := sourceID(t, s.Graph())
	s.ResetToInitial("new goal")

	got := s.Graph()
	require.Len(t, got.Nodes, 2)
	require.Len(t, got.Edges, 1)
	assert.True(t, got.Edges[0].IsOpen())
	assert.NotEqual(t, oldSource, sourceID(t, got))
	goal, ok := got.Node(domain.GoalNodeID)
	require.True(t, ok)
	assert.Equal(t, "new goal", goal.Label)
	require.NoError(t, domain.CheckInvariants(got))
}

func TestReset_KeepsSource(t *testing.T) {
	s := newStore(t)
	g := s.Graph()
	src := sourceID(t, g)
	g.Nodes[0].Note = "kept"
	g, _, err := ApplyTactic(g, src, "SplitGoal()", false, 2, SequenceIDs("k"))
	require.NoError(t, err)
	s.Replace(g.Nodes, g.Edges)

	s.Reset("goal expr")
	got := s.Graph()
	require.Len(t, got.Nodes, 2)
	node, ok := got.Node(src)
	require.True(t, ok)
	assert.Equal(t, "kept", node.Note)
	assert.True(t, got.IsOpenLeaf(src))
}
