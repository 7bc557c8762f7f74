package domain

// Position is a point on the canvas, written by the layout adapter.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// ProofNode is a proof state in the editable graph.
type ProofNode struct {
	ID        string   `json:"id" yaml:"id"`
	Type      NodeType `json:"type" yaml:"type"`
	Label     string   `json:"label" yaml:"label"`
	IsLemma   bool     `json:"is_lemma,omitempty" yaml:"is_lemma,omitempty"`
	Deletable bool     `json:"deletable" yaml:"deletable"`

	// Note is a free-form user annotation. It survives reconciliation as long as
	// the evaluator keeps reporting the node under the same id.
	Note string `json:"note,omitempty" yaml:"note,omitempty"`

	Position Position `json:"position" yaml:"position"`
}

// IsGoal reports whether the node is the goal sentinel.
func (n ProofNode) IsGoal() bool {
	return n.ID == GoalNodeID
}

// NewGoalNode returns the goal sentinel labelled with the goal expression.
func NewGoalNode(label string) ProofNode {
	return ProofNode{
		ID:    GoalNodeID,
		Type:  NodeGoal,
		Label: label,
	}
}
