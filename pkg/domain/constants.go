package domain

// Reserved strings shared with the evaluator. They are part of the wire contract.
const (
	// GoalNodeID is the fixed id of the goal sentinel node.
	GoalNodeID = "goal"

	// SorryTactic marks an unresolved goal.
	SorryTactic = "sorry"

	// WinTactic is reported by the evaluator for a goal that has been closed.
	WinTactic = "win"
)

// NodeType classifies a proof node.
type NodeType string

const (
	NodeSource NodeType = "source"
	NodeTactic NodeType = "tactic"
	NodeGoal   NodeType = "goal"
)

// ExecutionMode decides when the evaluator runs.
type ExecutionMode string

const (
	// ModeAuto runs the evaluator after every mutation.
	ModeAuto ExecutionMode = "auto"
	// ModeManual only runs the evaluator when asked to.
	ModeManual ExecutionMode = "manual"
)

// Direction is the main axis of the graph layout.
type Direction string

const (
	DirectionTB Direction = "TB"
	DirectionLR Direction = "LR"
)
