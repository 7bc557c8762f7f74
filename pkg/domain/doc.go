/*
Package domain contains the core models of the proof-graph engine.

It defines the editable proof graph, the problem statement a proof is built for,
and the proof tree reported back by an evaluator. The package is kept pure and free
of I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - ProofNode: a proof state (the source, a state produced by a tactic, or the goal sentinel).
  - TacticEdge: a tactic application between two proof states, or an unresolved "sorry" edge.
  - Graph: the arena of nodes and edges, with adjacency rebuilt on demand.
  - Problem: the variables, hypotheses and goal the proof starts from.
  - ProofTree: the authoritative tree an evaluator reports after running a script.
*/
package domain
