package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/aretw0/proofweave/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleView() View {
	return View{
		ID:         "demo",
		Generation: 2,
		Mode:       domain.ModeAuto,
		Nodes: []domain.ProofNode{
			{ID: "src", Type: domain.NodeSource, Label: "x: real\n|- x > 0"},
			{ID: "n1", Type: domain.NodeTactic, Label: "x: real\n|- x > 0 [SplitGoal 1/2]"},
			domain.NewGoalNode("x > 0"),
		},
		Edges: []domain.TacticEdge{
			{ID: "e1", Source: "src", Target: "n1", Tactic: "SplitGoal()", ResolutionID: "r1", Resolved: true},
			domain.NewSorryEdge("e2", "n1", ""),
		},
		OpenGoals: []string{"n1"},
		Outcome:   &domain.Outcome{Generation: 2, FinalValue: "Proof incomplete: 1 goal(s) remaining."},
	}
}

func TestPrinter_View(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	p := &Printer{Out: &buf}

	require.NoError(t, p.View(sampleView()))
	out := buf.String()
	assert.Contains(t, out, "Session demo (generation 2, auto mode)")
	assert.Contains(t, out, "1 open goal(s)")
	assert.Contains(t, out, "○ n1  |- x > 0 [SplitGoal 1/2]")
	assert.Contains(t, out, "e1: src --SplitGoal()--> n1")
	assert.NotContains(t, out, "e2:")
	assert.Contains(t, out, "Proof incomplete: 1 goal(s) remaining.")
}

func TestPrinter_JSON(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Out: &buf, JSON: true}

	p.SystemMessage("hidden")
	require.NoError(t, p.View(sampleView()))

	var decoded View
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "demo", decoded.ID)
	assert.Equal(t, []string{"n1"}, decoded.OpenGoals)
}
