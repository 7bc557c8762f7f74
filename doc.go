/*
Package proofweave is an engine for building step-by-step logical proofs as
graphs of proof states joined by tactic applications.

Three views of a proof are kept consistent: the editable graph, the linear
script generated from it for a symbolic evaluator, and the proof tree the
evaluator reports back. The tree is merged into the graph without losing the
user's tactics, notes or positions.

# Concept

A workspace starts with two nodes: the source, holding the problem statement,
and the goal sentinel. An open goal is an edge into the goal sentinel carrying
the "sorry" tactic. Applying a tactic to an open goal replaces that edge with
one edge per goal the tactic opens; all of them share one resolution id and
are removed together.

Every edit bumps the workspace generation. In auto mode it also sends the new
script to the evaluator; a reply for an older generation is discarded.

# Usage

	eng, err := proofweave.New(proofweave.WithOwnedEvaluator(starlark.New()))
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close()

	ctx := context.Background()
	w := eng.NewWorkspace("demo")
	src, _ := w.Graph().Source()
	if _, err := w.ApplyTactic(ctx, src.ID, "Linarith()", false); err != nil {
		log.Fatal(err)
	}
	w.Wait()

	out, _ := w.Outcome()
	fmt.Println(out.ProofComplete)

# Adapters

Evaluators live in pkg/adapters/process (an external program speaking JSON) and
pkg/adapters/starlark (an offline dry run). Workspace snapshots can be kept in
memory, on disk, in Redis or in SQLite; problems come from built-in presets or
a Loam repository. pkg/adapters/http and pkg/adapters/mcp expose sessions over
REST with server-sent events and over the Model Context Protocol.
*/
package proofweave
