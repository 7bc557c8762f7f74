package runtime

import (
	"fmt"

	"github.com/aretw0/proofweave/pkg/domain"
)

// Removal describes what an edge removal took out of the graph.
type Removal struct {
	Source string
	Edges  []string
	Nodes  []string

	// Reattached is the id of the unresolved edge put back at Source.
	Reattached string
}

// RemoveEdge undoes the tactic application edgeID belongs to. Every edge of its
// resolution group goes, together with the proof states only reachable through
// them. The source of the group gets a single unresolved edge back.
func RemoveEdge(g domain.Graph, edgeID string, ids IDGenerator) (domain.Graph, Removal, error) {
	target, ok := g.Edge(edgeID)
	if !ok {
		return g, Removal{}, fmt.Errorf("remove %s: %w", edgeID, domain.ErrEdgeNotFound)
	}
	if target.IsOpen() {
		return g, Removal{}, fmt.Errorf("remove %s: %w", edgeID, domain.ErrSentinelEdge)
	}

	removeEdge := map[string]bool{target.ID: true}
	if target.ResolutionID != "" {
		for _, e := range g.Edges {
			if e.ResolutionID == target.ResolutionID {
				removeEdge[e.ID] = true
			}
		}
	}

	removeNode := make(map[string]bool)
	inbound := func(id string) int {
		n := 0
		for _, e := range g.Edges {
			if e.Target == id && !removeEdge[e.ID] {
				n++
			}
		}
		return n
	}

	// Cascade: a node that lost its last inbound edge goes, and so do its
	// outgoing edges.
	var queue []string
	for _, e := range g.Edges {
		if removeEdge[e.ID] {
			queue = append(queue, e.Target)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if id == domain.GoalNodeID || removeNode[id] || inbound(id) > 0 {
			continue
		}
		removeNode[id] = true
		for _, e := range g.Edges {
			if e.Source == id && !removeEdge[e.ID] {
				removeEdge[e.ID] = true
				queue = append(queue, e.Target)
			}
		}
	}

	var next domain.Graph
	rm := Removal{Source: target.Source}
	for _, n := range g.Nodes {
		if removeNode[n.ID] {
			rm.Nodes = append(rm.Nodes, n.ID)
			continue
		}
		next.Nodes = append(next.Nodes, n)
	}
	for _, e := range g.Edges {
		if removeEdge[e.ID] {
			rm.Edges = append(rm.Edges, e.ID)
			continue
		}
		next.Edges = append(next.Edges, e)
	}

	sorry := domain.NewSorryEdge(ids(), target.Source, "")
	next.Edges = append(next.Edges, sorry)
	rm.Reattached = sorry.ID
	return next, rm, nil
}
