package runtime

import (
	"fmt"
	"strings"

	"github.com/aretw0/proofweave/pkg/domain"
)

// Script header and trailer understood by the evaluator.
const (
	scriptHeader  = "from estimates.main import *\nfrom sympy import *\np = ProofAssistant();"
	scriptTrailer = "p.proof()"
	nextGoal      = "if p.current_node: p.next_goal();"
)

// GenerateScript serializes a problem and its proof graph into an evaluator
// script. The output depends only on its inputs: the same problem and graph
// always give the same bytes.
func GenerateScript(p domain.Problem, g domain.Graph) string {
	var b strings.Builder
	b.WriteString(scriptHeader)
	b.WriteByte('\n')

	for _, v := range p.Variables {
		if v.Name == "" {
			continue
		}
		fmt.Fprintf(&b, "%s = p.var(%q, %q);\n", v.Name, v.Type, v.Name)
	}
	for _, h := range p.Hypotheses {
		if h.Expression == "" {
			continue
		}
		fmt.Fprintf(&b, "p.assume(%s, %q);\n", h.Expression, h.Name)
	}
	if p.Goal.Expression != "" {
		fmt.Fprintf(&b, "p.begin_proof(%s);\n", p.Goal.Expression)
	}

	// Every branch ends in an edge into the goal sentinel. With more than one
	// of them the evaluator has to be told to move past an open one.
	branches := len(g.Incoming(domain.GoalNodeID))

	emitted := make(map[string]bool)
	for _, e := range traversal(g) {
		if e.ResolutionID != "" {
			if emitted[e.ResolutionID] {
				continue
			}
			emitted[e.ResolutionID] = true
		}
		switch {
		case e.Tactic == domain.SorryTactic:
			if branches > 1 {
				b.WriteString(nextGoal)
				b.WriteByte('\n')
			}
		case e.Tactic == domain.WinTactic:
		case e.IsLemma:
			fmt.Fprintf(&b, "p.use_lemma(%s);\n", e.Tactic)
		default:
			fmt.Fprintf(&b, "p.use(%s);\n", e.Tactic)
		}
	}

	b.WriteString(scriptTrailer)
	return b.String()
}

// traversal walks the graph depth-first from the source and returns the edges
// in visitation order. Siblings are visited first edge first.
func traversal(g domain.Graph) []domain.TacticEdge {
	src, ok := g.Source()
	if !ok {
		return nil
	}

	var order []domain.TacticEdge
	visited := make(map[string]bool)
	stack := []string{src.ID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true

		out := g.Outgoing(id)
		// Siblings stay in graph order. Only the first of a resolution group
		// is emitted, so their relative order never reaches the script.
		order = append(order, out...)
		for i := len(out) - 1; i >= 0; i-- {
			if out[i].Target != domain.GoalNodeID {
				stack = append(stack, out[i].Target)
			}
		}
	}
	return order
}
