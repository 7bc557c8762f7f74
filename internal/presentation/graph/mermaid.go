package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/proofweave/pkg/domain"
)

// GraphOverlay contains extra state to highlight on the graph.
type GraphOverlay struct {
	// Selected is a node the user is looking at.
	Selected string

	// Notes appends node annotations to their labels.
	Notes bool
}

// GenerateMermaid produces a Mermaid flowchart from a proof graph.
// It applies semantic styling:
// - Source: ((Circle))
// - Goal: {{Hexagon}}
// - Proof state: [Rectangle]
// Open goals are drawn as dotted "sorry" arrows, lemma applications as thick
// arrows and unconfirmed tactics as dashed ones.
func GenerateMermaid(g domain.Graph, dir domain.Direction, overlay *GraphOverlay) string {
	var sb strings.Builder
	if dir == "" {
		dir = domain.DirectionTB
	}
	fmt.Fprintf(&sb, "graph %s\n", dir)

	for _, node := range g.Nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch node.Type {
		case domain.NodeSource:
			opener, closer = "((", "))"
		case domain.NodeGoal:
			opener, closer = "{{", "}}"
		}

		label := node.Label
		if overlay != nil && overlay.Notes && node.Note != "" {
			label += "\n📝 " + node.Note
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(label), closer)
	}

	for _, e := range g.Edges {
		from, to := sanitizeMermaidID(e.Source), sanitizeMermaidID(e.Target)
		tactic := escapeLabel(e.Tactic)

		var arrow string
		switch {
		case e.IsOpen():
			arrow = "-. sorry .->"
		case e.IsLemma:
			arrow = fmt.Sprintf("== \"%s\" ==>", tactic)
		case e.Pending():
			arrow = fmt.Sprintf("-. \"%s\" .->", tactic)
		default:
			arrow = fmt.Sprintf("-- \"%s\" -->", tactic)
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", from, arrow, to)
	}

	sb.WriteString("\n    %% Proof Styles\n")
	// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
	sb.WriteString("    classDef open fill:#fff3e0,stroke:#e65100,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef proved fill:#e8f5e9,stroke:#1b5e20,stroke-width:2px,color:#000;\n")

	openSet := make(map[string]bool)
	for _, e := range g.OpenEdges() {
		safeID := sanitizeMermaidID(e.Source)
		if !openSet[safeID] {
			openSet[safeID] = true
			fmt.Fprintf(&sb, "    class %s open;\n", safeID)
		}
	}
	if len(openSet) == 0 {
		fmt.Fprintf(&sb, "    class %s proved;\n", sanitizeMermaidID(domain.GoalNodeID))
	}

	if overlay != nil && overlay.Selected != "" {
		sb.WriteString("    classDef selected stroke:#fbc02d,stroke-width:4px;\n")
		fmt.Fprintf(&sb, "    class %s selected;\n", sanitizeMermaidID(overlay.Selected))
	}

	return sb.String()
}

func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.ReplaceAll(s, "\n", "<br/>")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	// "end" is a Mermaid keyword.
	if s == "end" {
		s = "end_"
	}
	return s
}
