package domain

// TreeNode is a proof state as reported by the evaluator. Tactic is the tactic
// applied at this state, SorryTactic while it is still open, or WinTactic once
// the branch is closed.
type TreeNode struct {
	ID        string `json:"id" mapstructure:"id"`
	Label     string `json:"label" mapstructure:"label"`
	Tactic    string `json:"tactic" mapstructure:"tactic"`
	SorryFree bool   `json:"sorry_free" mapstructure:"sorry_free"`
}

// TreeEdge links a parent state to a child state. Label is the tactic applied
// at the parent.
type TreeEdge struct {
	Source string `json:"source" mapstructure:"source"`
	Target string `json:"target" mapstructure:"target"`
	Label  string `json:"label" mapstructure:"label"`
}

// ProofTree is the authoritative structure of a proof as reported by the evaluator.
type ProofTree struct {
	Nodes         []TreeNode `json:"nodes" mapstructure:"nodes"`
	Edges         []TreeEdge `json:"edges" mapstructure:"edges"`
	ProofComplete bool       `json:"proof_complete" mapstructure:"proof_complete"`
}

// Root returns the tree node that is never the target of an edge.
func (t ProofTree) Root() (TreeNode, bool) {
	targets := make(map[string]bool, len(t.Edges))
	for _, e := range t.Edges {
		targets[e.Target] = true
	}
	for _, n := range t.Nodes {
		if !targets[n.ID] {
			return n, true
		}
	}
	return TreeNode{}, false
}

// Children returns the edges leaving id, in evaluator order.
func (t ProofTree) Children(id string) []TreeEdge {
	var out []TreeEdge
	for _, e := range t.Edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}

// Result is a successful evaluator execution.
type Result struct {
	FinalValue any       `json:"final_value,omitempty"`
	Console    []string  `json:"console,omitempty"`
	Tree       ProofTree `json:"tree"`
}
