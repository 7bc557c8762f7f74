package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/proofweave/pkg/domain"
)

// Library adapts a Loam repository of problem documents to ports.ProblemLibrary.
// Each markdown (or JSON/YAML) document describes one problem in its metadata;
// the body is free-form commentary and is ignored.
type Library struct {
	Repo *loam.TypedRepository[ProblemMetadata]
}

// New creates a new Loam problem library.
func New(repo *loam.TypedRepository[ProblemMetadata]) *Library {
	return &Library{
		Repo: repo,
	}
}

// Open initializes a read-only Loam repository at dir.
func Open(dir string) (*Library, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	// Strict mode keeps numbers consistent across serializers; the library
	// never writes, so the repository is opened read-only.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[ProblemMetadata](repo)), nil
}

// Get retrieves a problem by its normalized id.
func (l *Library) Get(ctx context.Context, id string) (domain.Problem, error) {
	problems, err := l.List(ctx)
	if err != nil {
		return domain.Problem{}, err
	}
	for _, p := range problems {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Problem{}, fmt.Errorf("%s: %w", id, domain.ErrProblemNotFound)
}

// List returns every problem in the repository, ordered by id.
func (l *Library) List(ctx context.Context) ([]domain.Problem, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	problems := make([]domain.Problem, 0, len(docs))
	for _, doc := range docs {
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		if existingPath, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, existingPath, doc.ID)
		}
		seen[id] = doc.ID

		p := toProblem(id, doc.Data)
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("problem %s: %w", id, err)
		}
		problems = append(problems, p)
	}

	sort.Slice(problems, func(i, j int) bool { return problems[i].ID < problems[j].ID })
	return problems, nil
}

func toProblem(id string, meta ProblemMetadata) domain.Problem {
	p := domain.Problem{
		ID:    id,
		Title: meta.Title,
		Goal:  domain.Goal{Expression: meta.Goal},
	}
	if p.Title == "" {
		p.Title = id
	}
	for _, v := range meta.Variables {
		p.Variables = append(p.Variables, domain.Variable{Name: v.Name, Type: v.Type})
	}
	for _, h := range meta.Hypotheses {
		p.Hypotheses = append(p.Hypotheses, domain.Hypothesis{Name: h.Name, Expression: h.Expression})
	}
	return p
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
