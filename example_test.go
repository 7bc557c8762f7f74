package proofweave_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/proofweave"
	"github.com/aretw0/proofweave/pkg/adapters/starlark"
)

// ExampleNew shows a one-step proof of the default problem checked by the
// offline dry-run evaluator.
func ExampleNew() {
	eng, err := proofweave.New(proofweave.WithOwnedEvaluator(starlark.New()))
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close()

	ctx := context.Background()
	w := eng.NewWorkspace("example")
	defer w.Close()

	src, _ := w.Graph().Source()
	if _, err := w.ApplyTactic(ctx, src.ID, "Linarith()", false); err != nil {
		log.Fatal(err)
	}
	w.Wait()

	out, _ := w.Outcome()
	fmt.Println(out.ProofComplete, out.FinalValue)
	// Output: true Proof complete!
}

// ExampleEngine_LoadProblem shows how the open goals follow the tactics.
func ExampleEngine_LoadProblem() {
	eng, err := proofweave.New(proofweave.WithOwnedEvaluator(starlark.New()))
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close()

	ctx := context.Background()
	w := eng.NewWorkspace("cases")
	defer w.Close()

	if err := eng.LoadProblem(ctx, w, "case-split"); err != nil {
		log.Fatal(err)
	}
	src, _ := w.Graph().Source()
	if _, err := w.ApplyTactic(ctx, src.ID, "Cases(h1)", false); err != nil {
		log.Fatal(err)
	}
	w.Wait()

	fmt.Println(len(w.Graph().OpenEdges()))
	// Output: 2
}
