package runtime

import (
	"github.com/aretw0/proofweave/pkg/domain"
	"github.com/aretw0/proofweave/pkg/ports"
)

// GraphStore owns the canonical proof graph. Every change is a full Replace,
// after which the layout adapter recomputes positions.
//
// GraphStore is not safe for concurrent use; Workspace serializes access.
type GraphStore struct {
	graph  domain.Graph
	layout ports.Layout
	dir    domain.Direction
	ids    IDGenerator
}

// NewGraphStore returns a store holding the initial two-node graph.
func NewGraphStore(layout ports.Layout, dir domain.Direction, ids IDGenerator, goalLabel string) *GraphStore {
	if ids == nil {
		ids = NewUUID
	}
	if dir == "" {
		dir = domain.DirectionTB
	}
	s := &GraphStore{layout: layout, dir: dir, ids: ids}
	s.ResetToInitial(goalLabel)
	return s
}

// Nodes returns a copy of the current nodes.
func (s *GraphStore) Nodes() []domain.ProofNode {
	return s.graph.Clone().Nodes
}

// Edges returns a copy of the current edges.
func (s *GraphStore) Edges() []domain.TacticEdge {
	return s.graph.Clone().Edges
}

// Graph returns a copy of the current graph.
func (s *GraphStore) Graph() domain.Graph {
	return s.graph.Clone()
}

// Replace atomically swaps in a new graph and lays it out.
func (s *GraphStore) Replace(nodes []domain.ProofNode, edges []domain.TacticEdge) {
	g := domain.Graph{Nodes: nodes, Edges: edges}.Clone()
	if s.layout != nil {
		g.Nodes = s.layout.Arrange(g.Nodes, g.Edges, s.dir)
	}
	s.graph = g
}

// Relayout recomputes positions without touching the structure.
func (s *GraphStore) Relayout() {
	s.Replace(s.graph.Nodes, s.graph.Edges)
}

// SetDirection changes the layout axis and lays the graph out again.
func (s *GraphStore) SetDirection(dir domain.Direction) {
	s.dir = dir
	s.Relayout()
}

// ResetToInitial returns to the canonical two-node graph with a fresh source:
// source connected to the goal sentinel by one unresolved edge.
func (s *GraphStore) ResetToInitial(goalLabel string) {
	source := domain.ProofNode{ID: s.ids(), Type: domain.NodeSource}
	s.resetWith(source, goalLabel)
}

// Reset returns to the two-node graph but keeps the current source node, so
// its id and note survive.
func (s *GraphStore) Reset(goalLabel string) {
	source, ok := s.graph.Source()
	if !ok {
		s.ResetToInitial(goalLabel)
		return
	}
	source.Deletable = false
	source.Type = domain.NodeSource
	s.resetWith(source, goalLabel)
}

func (s *GraphStore) resetWith(source domain.ProofNode, goalLabel string) {
	s.Replace(
		[]domain.ProofNode{source, domain.NewGoalNode(goalLabel)},
		[]domain.TacticEdge{domain.NewSorryEdge(s.ids(), source.ID, "")},
	)
}

// SetGoalLabel relabels the goal sentinel.
func (s *GraphStore) SetGoalLabel(label string) {
	nodes := s.graph.Clone().Nodes
	for i := range nodes {
		if nodes[i].IsGoal() {
			nodes[i].Label = label
		}
	}
	s.graph.Nodes = nodes
}
