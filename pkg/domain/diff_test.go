package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	source := ProofNode{ID: "root", Type: NodeSource, Label: "root"}
	goal := NewGoalNode("x > 0")
	open := NewSorryEdge("e1", "root", "r1")

	base := &Graph{
		Nodes: []ProofNode{source, goal},
		Edges: []TacticEdge{open},
	}

	annotated := source
	annotated.Note = "start here"

	tests := []struct {
		name     string
		old      *Graph
		new      *Graph
		wantDiff *GraphDiff // nil means we expect no diff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new:  base,
			wantDiff: &GraphDiff{
				AddedNodes: []ProofNode{source, goal},
				AddedEdges: []TacticEdge{open},
			},
		},
		{
			name:     "No Changes",
			old:      base,
			new:      &Graph{Nodes: []ProofNode{source, goal}, Edges: []TacticEdge{open}},
			wantDiff: nil,
		},
		{
			name: "Node Updated",
			old:  base,
			new:  &Graph{Nodes: []ProofNode{annotated, goal}, Edges: []TacticEdge{open}},
			wantDiff: &GraphDiff{
				UpdatedNodes: []ProofNode{annotated},
			},
		},
		{
			name: "Edge Replaced",
			old:  base,
			new: &Graph{
				Nodes: []ProofNode{source, goal},
				Edges: []TacticEdge{{ID: "e2", Source: "root", Target: "goal", Tactic: "Linarith()", ResolutionID: "r2"}},
			},
			wantDiff: &GraphDiff{
				AddedEdges:   []TacticEdge{{ID: "e2", Source: "root", Target: "goal", Tactic: "Linarith()", ResolutionID: "r2"}},
				RemovedEdges: []string{"e1"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if tt.wantDiff == nil {
				if got != nil {
					t.Errorf("Diff() = %v, want nil", got)
				}
				return
			}

			if got == nil {
				t.Fatalf("Diff() = nil, want %v", tt.wantDiff)
			}

			if !reflect.DeepEqual(got, tt.wantDiff) {
				t.Errorf("Diff() = %+v, want %+v", got, tt.wantDiff)
			}
		})
	}
}

func TestDiffJSONSerialization(t *testing.T) {
	t.Run("Empty Sections Omitted", func(t *testing.T) {
		g1 := &Graph{Nodes: []ProofNode{NewGoalNode("g")}}
		g2 := &Graph{Nodes: []ProofNode{NewGoalNode("g"), {ID: "n1", Label: "n1"}}}
		diff := Diff(g1, g2)

		if diff == nil {
			t.Fatal("Expected diff, got nil")
		}

		bytes, _ := json.Marshal(diff)
		if strings.Contains(string(bytes), `"removed_nodes"`) {
			t.Errorf("JSON should not contain 'removed_nodes' when empty, got: %s", string(bytes))
		}
		if !strings.Contains(string(bytes), `"added_nodes"`) {
			t.Errorf("JSON should contain 'added_nodes', got: %s", string(bytes))
		}
	})
}
