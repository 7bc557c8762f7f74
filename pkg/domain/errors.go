package domain

import (
	"errors"
	"fmt"
)

// ErrNotOpenLeaf is returned when a tactic is applied to a node that is not the
// source of an unresolved sentinel edge.
var ErrNotOpenLeaf = errors.New("node is not an open leaf")

// ErrNodeNotFound is returned when a node id is not in the graph.
var ErrNodeNotFound = errors.New("node not found")

// ErrEdgeNotFound is returned when an edge id is not in the graph.
var ErrEdgeNotFound = errors.New("edge not found")

// ErrSentinelEdge is returned when removing an unresolved sentinel edge.
var ErrSentinelEdge = errors.New("sentinel edges cannot be removed")

// ErrWorkspaceNotFound is returned when a workspace id cannot be found in the store.
var ErrWorkspaceNotFound = errors.New("workspace not found")

// ErrNoEvaluator is returned when a run is requested without an evaluator.
var ErrNoEvaluator = errors.New("no evaluator configured")

// ErrInvalidProblem is returned when a problem statement fails validation.
var ErrInvalidProblem = errors.New("invalid problem")

// ErrProblemNotFound is returned when a problem library has no problem with the given id.
var ErrProblemNotFound = errors.New("problem not found")

// ExecutionError is an evaluator-reported failure. The message is shown to the
// user verbatim and the graph is left unchanged.
type ExecutionError struct {
	Message string
	Console []string
}

func (e *ExecutionError) Error() string {
	return e.Message
}

// InvariantError describes one violated graph invariant.
type InvariantError struct {
	Rule   int
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant %d: %s", e.Rule, e.Detail)
}

// ErrWorkspaceClosed is returned by a workspace after Close.
var ErrWorkspaceClosed = errors.New("workspace closed")
