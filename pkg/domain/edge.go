package domain

// TacticEdge connects two proof states.
//
// An edge whose Tactic is SorryTactic marks an open goal and always points at the
// goal sentinel. Edges created by one tactic application share a ResolutionID and
// are added or removed together.
type TacticEdge struct {
	ID           string `json:"id" yaml:"id"`
	Source       string `json:"source" yaml:"source"`
	Target       string `json:"target" yaml:"target"`
	Tactic       string `json:"tactic" yaml:"tactic"`
	IsLemma      bool   `json:"is_lemma,omitempty" yaml:"is_lemma,omitempty"`
	ResolutionID string `json:"resolution_id" yaml:"resolution_id"`

	// Resolved is false until the evaluator has confirmed the edge.
	Resolved bool `json:"resolved" yaml:"resolved"`

	// Animated is true exactly when the edge is an unresolved sentinel.
	Animated bool `json:"animated,omitempty" yaml:"animated,omitempty"`
}

// IsOpen reports whether the edge is an unresolved sentinel edge.
func (e TacticEdge) IsOpen() bool {
	return e.Tactic == SorryTactic
}

// Pending reports whether the edge was added by the user and not yet confirmed.
func (e TacticEdge) Pending() bool {
	return !e.Resolved && !e.IsOpen()
}

// NewSorryEdge returns an open edge from source to the goal sentinel.
func NewSorryEdge(id, source, resolutionID string) TacticEdge {
	return TacticEdge{
		ID:           id,
		Source:       source,
		Target:       GoalNodeID,
		Tactic:       SorryTactic,
		ResolutionID: resolutionID,
		Resolved:     false,
		Animated:     true,
	}
}
