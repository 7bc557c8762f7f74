package runtime

import (
	"fmt"

	"github.com/aretw0/proofweave/pkg/domain"
)

// Diagnostic flags an evaluator edge whose user metadata could not be recovered.
// The edge then carries the evaluator label and a fresh resolution id.
type Diagnostic struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
	Reason string `json:"reason"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s -> %s (%s): %s", d.Source, d.Target, d.Label, d.Reason)
}

// ReconcileReport counts how every evaluator edge was matched.
type ReconcileReport struct {
	Matched     int          `json:"matched"`
	Adopted     int          `json:"adopted"`
	Fallback    int          `json:"fallback"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Reconcile folds an evaluator tree into the editable graph and returns the
// graph that replaces prev.
//
// The tree decides which proof states and transitions exist; prev decides how
// each transition is described. Evaluator ids are only stable within one run, so
// the tree is first aligned with prev structurally: the tree root is the editor
// source, and the children of an aligned pair are paired up in order when both
// sides have the same number of them. Aligned states keep their editor id and
// note; the rest get fresh ids.
//
// Each evaluator edge then takes its metadata from the prev edge with the same
// endpoints, else from the single tactic application still waiting for
// confirmation, else it falls back to the evaluator label. Only the fallback
// between several waiting applications is reported as a Diagnostic.
func Reconcile(prev domain.Graph, tree domain.ProofTree, goalLabel string, ids IDGenerator) (domain.Graph, ReconcileReport) {
	var report ReconcileReport
	root, ok := tree.Root()
	if !ok {
		report.Diagnostics = append(report.Diagnostics, Diagnostic{Reason: "evaluator returned an empty tree"})
		return prev.Clone(), report
	}

	r := &reconciler{prev: prev, tree: tree, idOf: make(map[string]string)}
	if src, ok := prev.Source(); ok {
		r.align(root.ID, src.ID)
	}
	for _, n := range tree.Nodes {
		if _, ok := r.idOf[n.ID]; !ok {
			r.idOf[n.ID] = ids()
		}
	}

	// Siblings of one tactic application share a resolution id and carry the
	// same metadata, so each group counts as a single candidate.
	var pending []domain.TacticEdge
	seen := make(map[string]bool)
	for _, e := range prev.Edges {
		if !e.Pending() {
			continue
		}
		key := e.ResolutionID
		if key == "" {
			key = e.ID
		}
		if !seen[key] {
			seen[key] = true
			pending = append(pending, e)
		}
	}

	var next domain.Graph
	ridOf := make(map[string]string)
	lemma := make(map[string]bool)

	for _, te := range tree.Edges {
		s, t := r.idOf[te.Source], r.idOf[te.Target]
		edge := domain.TacticEdge{
			ID:       s + "_" + t,
			Source:   s,
			Target:   t,
			Resolved: true,
		}

		if old, ok := r.prevEdge(s, t); ok {
			edge.ID = old.ID
			edge.Tactic = old.Tactic
			edge.IsLemma = old.IsLemma
			edge.ResolutionID = old.ResolutionID
			report.Matched++
		} else if len(pending) == 1 {
			edge.Tactic = pending[0].Tactic
			edge.IsLemma = pending[0].IsLemma
			if pending[0].Source == s {
				edge.ResolutionID = pending[0].ResolutionID
			}
			report.Adopted++
		} else {
			edge.Tactic = te.Label
			if len(pending) > 1 {
				reason := fmt.Sprintf("%d tactic applications awaiting confirmation", len(pending))
				report.Diagnostics = append(report.Diagnostics, Diagnostic{Source: s, Target: t, Label: te.Label, Reason: reason})
			}
			report.Fallback++
		}

		// Unmatched edges out of one state form one resolution group.
		if edge.ResolutionID == "" {
			if rid, ok := ridOf[s]; ok {
				edge.ResolutionID = rid
			} else {
				edge.ResolutionID = ids()
			}
		}
		ridOf[s] = edge.ResolutionID
		lemma[t] = edge.IsLemma
		next.Edges = append(next.Edges, edge)
	}

	var terminal []domain.TacticEdge
	for _, n := range tree.Nodes {
		id := r.idOf[n.ID]
		node := domain.ProofNode{
			ID:        id,
			Type:      domain.NodeTactic,
			Label:     n.Label,
			IsLemma:   lemma[id],
			Deletable: true,
		}
		if n.ID == root.ID {
			node.Type = domain.NodeSource
			node.Deletable = false
		}
		if old, ok := prev.Node(id); ok {
			node.Note = old.Note
			node.Position = old.Position
		}
		next.Nodes = append(next.Nodes, node)

		if len(tree.Children(n.ID)) > 0 {
			continue
		}
		if !n.SorryFree {
			e := domain.NewSorryEdge(id+"_"+domain.GoalNodeID, id, "")
			e.Resolved = true
			terminal = append(terminal, e)
			continue
		}
		terminal = append(terminal, r.terminalEdge(id, n))
	}
	next.Edges = append(next.Edges, terminal...)
	next.Nodes = append(next.Nodes, domain.NewGoalNode(goalLabel))
	return next, report
}

type reconciler struct {
	prev domain.Graph
	tree domain.ProofTree
	idOf map[string]string
}

func (r *reconciler) align(treeID, editorID string) {
	r.idOf[treeID] = editorID

	children := r.tree.Children(treeID)
	var editor []domain.TacticEdge
	for _, e := range r.prev.Outgoing(editorID) {
		if e.Target != domain.GoalNodeID {
			editor = append(editor, e)
		}
	}
	if len(children) == 0 || len(children) != len(editor) {
		return
	}
	for i, c := range children {
		if _, seen := r.idOf[c.Target]; seen {
			continue
		}
		r.align(c.Target, editor[i].Target)
	}
}

func (r *reconciler) prevEdge(source, target string) (domain.TacticEdge, bool) {
	for _, e := range r.prev.Edges {
		if e.Source == source && e.Target == target {
			return e, true
		}
	}
	return r.prev.Edge(source + "_" + target)
}

// terminalEdge closes a finished branch. The tactic the user applied at that
// state wins over the evaluator label, which wins over WinTactic.
func (r *reconciler) terminalEdge(id string, n domain.TreeNode) domain.TacticEdge {
	e := domain.TacticEdge{
		ID:       id + "_" + domain.GoalNodeID,
		Source:   id,
		Target:   domain.GoalNodeID,
		Tactic:   n.Tactic,
		Resolved: true,
	}
	for _, old := range r.prev.Outgoing(id) {
		if old.IsOpen() || old.Tactic == "" {
			continue
		}
		e.Tactic = old.Tactic
		e.IsLemma = old.IsLemma
		e.ResolutionID = old.ResolutionID
		break
	}
	if e.Tactic == "" || e.Tactic == domain.SorryTactic {
		e.Tactic = domain.WinTactic
	}
	return e
}
