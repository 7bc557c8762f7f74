// Package layout positions proof graph nodes on a canvas.
package layout

import (
	"github.com/aretw0/proofweave/pkg/domain"
)

// Default spacing between sibling nodes and between ranks.
const (
	DefaultNodeSep = 500
	DefaultRankSep = 150
)

// Layered places the proof tree rank by rank: a node sits one rank below its
// parent and is centred over its children, and the goal sentinel sits on its own
// rank below the deepest proof state.
type Layered struct {
	NodeSep float64
	RankSep float64
}

// New returns a Layered layout with the default spacing.
func New() *Layered {
	return &Layered{NodeSep: DefaultNodeSep, RankSep: DefaultRankSep}
}

// Arrange returns a copy of nodes with positions assigned. Edges into the goal
// sentinel are ignored for ranking.
func (l *Layered) Arrange(nodes []domain.ProofNode, edges []domain.TacticEdge, dir domain.Direction) []domain.ProofNode {
	g := domain.Graph{Nodes: nodes, Edges: edges}
	out := make([]domain.ProofNode, len(nodes))
	copy(out, nodes)

	children := make(map[string][]string)
	for _, e := range edges {
		if e.Target == domain.GoalNodeID {
			continue
		}
		children[e.Source] = append(children[e.Source], e.Target)
	}

	rank := make(map[string]int)
	slot := make(map[string]float64)
	visited := make(map[string]bool)
	next := 0.0
	deepest := 0

	var place func(id string, depth int) float64
	place = func(id string, depth int) float64 {
		visited[id] = true
		rank[id] = depth
		deepest = max(deepest, depth)

		var xs []float64
		for _, c := range children[id] {
			if visited[c] {
				continue
			}
			xs = append(xs, place(c, depth+1))
		}
		if len(xs) == 0 {
			slot[id] = next
			next++
		} else {
			slot[id] = (xs[0] + xs[len(xs)-1]) / 2
		}
		return slot[id]
	}

	if src, ok := g.Source(); ok {
		place(src.ID, 0)
	}
	// Anything the walk missed (a malformed graph) gets its own column.
	for _, n := range nodes {
		if !visited[n.ID] && !n.IsGoal() {
			place(n.ID, 0)
		}
	}
	center := (next - 1) / 2
	if next == 0 {
		center = 0
	}

	for i, n := range out {
		var r int
		var s float64
		if n.IsGoal() {
			r, s = deepest+1, center
		} else {
			r, s = rank[n.ID], slot[n.ID]
		}
		across := (s - center) * l.NodeSep
		along := float64(r) * l.RankSep
		if dir == domain.DirectionLR {
			out[i].Position = domain.Position{X: along, Y: across}
		} else {
			out[i].Position = domain.Position{X: across, Y: along}
		}
	}
	return out
}
