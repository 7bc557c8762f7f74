package layout

import (
	"testing"

	"github.com/aretw0/proofweave/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func byID(nodes []domain.ProofNode) map[string]domain.Position {
	out := make(map[string]domain.Position, len(nodes))
	for _, n := range nodes {
		out[n.ID] = n.Position
	}
	return out
}

func TestArrange_Tree(t *testing.T) {
	nodes := []domain.ProofNode{
		{ID: "root"}, {ID: "a"}, {ID: "b"}, domain.NewGoalNode("g"),
	}
	edges := []domain.TacticEdge{
		{ID: "1", Source: "root", Target: "a", ResolutionID: "r"},
		{ID: "2", Source: "root", Target: "b", ResolutionID: "r"},
		domain.NewSorryEdge("3", "a", "s1"),
		domain.NewSorryEdge("4", "b", "s2"),
	}

	l := &Layered{NodeSep: 100, RankSep: 10}
	pos := byID(l.Arrange(nodes, edges, domain.DirectionTB))
	require.Len(t, pos, 4)

	assert.Equal(t, domain.Position{X: 0, Y: 0}, pos["root"])
	assert.Equal(t, domain.Position{X: -50, Y: 10}, pos["a"])
	assert.Equal(t, domain.Position{X: 50, Y: 10}, pos["b"])
	assert.Equal(t, domain.Position{X: 0, Y: 20}, pos["goal"])
}

func TestArrange_LeftRight(t *testing.T) {
	nodes := []domain.ProofNode{{ID: "root"}, domain.NewGoalNode("g")}
	edges := []domain.TacticEdge{domain.NewSorryEdge("1", "root", "r")}

	l := &Layered{NodeSep: 100, RankSep: 10}
	pos := byID(l.Arrange(nodes, edges, domain.DirectionLR))
	assert.Equal(t, domain.Position{X: 10, Y: 0}, pos["goal"])
}

func TestArrange_DoesNotMutateInput(t *testing.T) {
	nodes := []domain.ProofNode{{ID: "root"}, domain.NewGoalNode("g")}
	edges := []domain.TacticEdge{domain.NewSorryEdge("1", "root", "r")}
	New().Arrange(nodes, edges, domain.DirectionTB)
	assert.Equal(t, domain.Position{}, nodes[1].Position)
}
