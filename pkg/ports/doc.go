/*
Package ports defines the driven ports (interfaces) of the proof-graph engine.

These interfaces decouple the core logic from external implementations, allowing
the engine to work with various evaluators, storage backends and problem sources.

# Key Interfaces

  - Evaluator: Runs a generated proof script and reports the proof tree.
  - Layout: Assigns canvas positions to proof nodes.
  - ProblemLibrary: Lists preset problems (e.g., from Loam or Memory).
  - WorkspaceStore: Persists and loads workspace snapshots.
  - DistributedLocker: Provides distributed locking for handling concurrent workspace access.
*/
package ports
