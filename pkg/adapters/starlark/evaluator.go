// Package starlark provides an offline evaluator that walks proof scripts
// without checking any mathematics.
//
// Scripts are parsed with the Starlark grammar, which covers the subset the
// code generator emits. Tactics are trusted: a tactic opens as many goals as
// the catalog says and a closing tactic always succeeds. The resulting tree has
// the same shape a real evaluator would report, which makes the evaluator useful
// for demos, tests and working without the symbolic backend installed.
package starlark

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/proofweave/internal/logging"
	"github.com/aretw0/proofweave/pkg/catalog"
	"github.com/aretw0/proofweave/pkg/domain"
	"go.starlark.net/syntax"
)

var fileOptions = &syntax.FileOptions{
	TopLevelControl: true,
	GlobalReassign:  true,
}

// Evaluator implements ports.Evaluator.
type Evaluator struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// Option configures the evaluator.
type Option func(*Evaluator)

// WithCatalog sets the catalog used for branch counts.
func WithCatalog(c *catalog.Catalog) Option {
	return func(e *Evaluator) {
		if c != nil {
			e.catalog = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates a dry-run evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		catalog: catalog.Default(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute walks script and reports the proof tree it builds.
func (e *Evaluator) Execute(ctx context.Context, script string) (*domain.Result, error) {
	src := prepare(script)
	file, err := fileOptions.Parse("proof.py", src, 0)
	if err != nil {
		return nil, &domain.ExecutionError{Message: fmt.Sprintf("SyntaxError: %v", err)}
	}

	m := &machine{
		catalog: e.catalog,
		source:  strings.Split(script, "\n"),
	}
	for _, stmt := range file.Stmts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := m.exec(stmt); err != nil {
			return nil, &domain.ExecutionError{Message: err.Error(), Console: m.console}
		}
	}
	if m.root == nil {
		return nil, &domain.ExecutionError{Message: "script never began a proof", Console: m.console}
	}

	tree := m.tree()
	e.logger.Debug("dry run complete", "states", len(tree.Nodes), "proof_complete", tree.ProofComplete)
	return &domain.Result{
		FinalValue: m.final,
		Console:    m.console,
		Tree:       tree,
	}, nil
}

// Close is a no-op.
func (e *Evaluator) Close() error {
	return nil
}

// prepare blanks import lines, which are not Starlark, and rewrites the power
// operator to one of the same width so spans still index the original text.
func prepare(script string) string {
	lines := strings.Split(script, "\n")
	for i, l := range lines {
		t := strings.TrimSpace(l)
		if strings.HasPrefix(t, "from ") || strings.HasPrefix(t, "import ") {
			lines[i] = ""
			continue
		}
		lines[i] = strings.ReplaceAll(l, "**", "//")
	}
	return strings.Join(lines, "\n")
}
