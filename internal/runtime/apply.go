package runtime

import (
	"fmt"

	"github.com/aretw0/proofweave/pkg/domain"
)

// Application describes the nodes and edges a tactic application added.
type Application struct {
	ResolutionID string
	Nodes        []string
	Edges        []string
}

// ApplyTactic attaches a tactic to an open leaf and returns the next graph.
// The open edges leaving nodeID are replaced by branches tactic edges sharing one
// fresh resolution id, each leading to a new proof state with its own open edge.
//
// nodeID must be the source of an unresolved edge; otherwise ErrNotOpenLeaf is
// returned and g is left as it was.
func ApplyTactic(g domain.Graph, nodeID, tactic string, isLemma bool, branches int, ids IDGenerator) (domain.Graph, Application, error) {
	if _, ok := g.Node(nodeID); !ok {
		return g, Application{}, fmt.Errorf("apply %s: %w", nodeID, domain.ErrNodeNotFound)
	}
	if !g.IsOpenLeaf(nodeID) {
		return g, Application{}, fmt.Errorf("apply %s: %w", nodeID, domain.ErrNotOpenLeaf)
	}
	if branches < 1 {
		branches = 1
	}

	next := domain.Graph{Nodes: append([]domain.ProofNode(nil), g.Nodes...)}
	for _, e := range g.Edges {
		if e.Source == nodeID && e.Target == domain.GoalNodeID {
			continue
		}
		next.Edges = append(next.Edges, e)
	}

	app := Application{ResolutionID: ids()}
	var open []domain.TacticEdge
	for range branches {
		child := domain.ProofNode{
			ID:        ids(),
			Type:      domain.NodeTactic,
			IsLemma:   isLemma,
			Deletable: true,
		}
		edge := domain.TacticEdge{
			ID:           ids(),
			Source:       nodeID,
			Target:       child.ID,
			Tactic:       tactic,
			IsLemma:      isLemma,
			ResolutionID: app.ResolutionID,
			Resolved:     false,
		}
		sorry := domain.NewSorryEdge(ids(), child.ID, "")

		next.Nodes = append(next.Nodes, child)
		next.Edges = append(next.Edges, edge)
		open = append(open, sorry)
		app.Nodes = append(app.Nodes, child.ID)
		app.Edges = append(app.Edges, edge.ID)
	}
	next.Edges = append(next.Edges, open...)
	return next, app, nil
}
