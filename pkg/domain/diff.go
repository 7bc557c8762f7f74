package domain

import (
	"reflect"
)

// GraphDiff represents the changes between two graphs.
// It is designed to be serialized to JSON for partial updates on the client.
type GraphDiff struct {
	// AddedNodes and UpdatedNodes carry the full new node.
	AddedNodes   []ProofNode `json:"added_nodes,omitempty"`
	UpdatedNodes []ProofNode `json:"updated_nodes,omitempty"`
	RemovedNodes []string    `json:"removed_nodes,omitempty"`

	AddedEdges   []TacticEdge `json:"added_edges,omitempty"`
	UpdatedEdges []TacticEdge `json:"updated_edges,omitempty"`
	RemovedEdges []string     `json:"removed_edges,omitempty"`
}

// Diff calculates the difference between oldGraph and newGraph.
// If oldGraph is nil, it returns a diff representing the entire newGraph (initial load).
// It returns nil when nothing changed.
func Diff(oldGraph, newGraph *Graph) *GraphDiff {
	if newGraph == nil {
		return nil
	}
	if oldGraph == nil {
		oldGraph = &Graph{}
	}

	diff := &GraphDiff{}

	oldNodes := make(map[string]ProofNode, len(oldGraph.Nodes))
	for _, n := range oldGraph.Nodes {
		oldNodes[n.ID] = n
	}
	seen := make(map[string]bool, len(newGraph.Nodes))
	for _, n := range newGraph.Nodes {
		seen[n.ID] = true
		prev, exists := oldNodes[n.ID]
		if !exists {
			diff.AddedNodes = append(diff.AddedNodes, n)
		} else if !reflect.DeepEqual(prev, n) {
			diff.UpdatedNodes = append(diff.UpdatedNodes, n)
		}
	}
	for _, n := range oldGraph.Nodes {
		if !seen[n.ID] {
			diff.RemovedNodes = append(diff.RemovedNodes, n.ID)
		}
	}

	oldEdges := make(map[string]TacticEdge, len(oldGraph.Edges))
	for _, e := range oldGraph.Edges {
		oldEdges[e.ID] = e
	}
	seenEdges := make(map[string]bool, len(newGraph.Edges))
	for _, e := range newGraph.Edges {
		seenEdges[e.ID] = true
		prev, exists := oldEdges[e.ID]
		if !exists {
			diff.AddedEdges = append(diff.AddedEdges, e)
		} else if prev != e {
			diff.UpdatedEdges = append(diff.UpdatedEdges, e)
		}
	}
	for _, e := range oldGraph.Edges {
		if !seenEdges[e.ID] {
			diff.RemovedEdges = append(diff.RemovedEdges, e.ID)
		}
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *GraphDiff) IsEmpty() bool {
	return len(d.AddedNodes) == 0 &&
		len(d.UpdatedNodes) == 0 &&
		len(d.RemovedNodes) == 0 &&
		len(d.AddedEdges) == 0 &&
		len(d.UpdatedEdges) == 0 &&
		len(d.RemovedEdges) == 0
}
