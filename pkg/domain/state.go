package domain

import "time"

// Snapshot is the persisted form of a workspace.
type Snapshot struct {
	ID        string        `json:"id"`
	Problem   Problem       `json:"problem"`
	Graph     Graph         `json:"graph"`
	Mode      ExecutionMode `json:"mode,omitempty"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Outcome is the result of the latest evaluator execution a workspace accepted.
type Outcome struct {
	Generation    uint64   `json:"generation"`
	Script        string   `json:"script"`
	FinalValue    any      `json:"final_value,omitempty"`
	Console       []string `json:"console,omitempty"`
	ProofComplete bool     `json:"proof_complete"`
	Error         string   `json:"error,omitempty"`

	// Reconciled is false for code-edit runs, which never touch the graph.
	Reconciled bool `json:"reconciled"`
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.Problem = s.Problem.Clone()
	out.Graph = s.Graph.Clone()
	return &out
}
