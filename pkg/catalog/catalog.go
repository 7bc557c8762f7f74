// Package catalog lists the tactics and lemmas the evaluator understands.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed tactics.yaml
var defaultCatalog []byte

var validate = validator.New()

// Entry describes one tactic or lemma.
type Entry struct {
	ID          string   `yaml:"id" json:"id" validate:"required"`
	Label       string   `yaml:"label" json:"label" validate:"required"`
	Description string   `yaml:"description" json:"description"`
	Class       string   `yaml:"class" json:"class" validate:"required"`
	Arguments   []string `yaml:"arguments" json:"arguments" validate:"dive,oneof=variables hypotheses goal verbose expressions"`
	Goals       int      `yaml:"goals" json:"goals" validate:"gte=0"`
	Lemma       bool     `yaml:"-" json:"lemma"`
}

// Branches is the number of proof states an application creates in the editor.
// A closing tactic still creates one state, which the evaluator then reports as won.
func (e Entry) Branches() int {
	return max(1, e.Goals)
}

// Closes reports whether a successful application leaves no goal behind.
func (e Entry) Closes() bool {
	return e.Goals == 0
}

// Catalog is an indexed list of tactics and lemmas.
type Catalog struct {
	Tactics []Entry `yaml:"tactics" json:"tactics" validate:"dive"`
	Lemmas  []Entry `yaml:"lemmas" json:"lemmas" validate:"dive"`

	byClass map[string]Entry
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("catalog: built-in catalog is invalid: %v", err))
	}
	return c
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	c.byClass = make(map[string]Entry, len(c.Tactics)+len(c.Lemmas))
	for _, t := range c.Tactics {
		if _, dup := c.byClass[t.Class]; dup {
			return nil, fmt.Errorf("invalid catalog: duplicate class %q", t.Class)
		}
		c.byClass[t.Class] = t
	}
	for i := range c.Lemmas {
		c.Lemmas[i].Lemma = true
		l := c.Lemmas[i]
		if _, dup := c.byClass[l.Class]; dup {
			return nil, fmt.Errorf("invalid catalog: duplicate class %q", l.Class)
		}
		c.byClass[l.Class] = l
	}
	return &c, nil
}

// Lookup finds an entry by class name.
func (c *Catalog) Lookup(class string) (Entry, bool) {
	e, ok := c.byClass[class]
	return e, ok
}

// Resolve finds the entry named by a tactic expression such as `Cases("h1")`.
func (c *Catalog) Resolve(expr string) (Entry, bool) {
	return c.Lookup(ClassName(expr))
}

// Branches returns how many proof states the tactic expression opens.
// Unknown tactics open one.
func (c *Catalog) Branches(expr string) int {
	if e, ok := c.Resolve(expr); ok {
		return e.Branches()
	}
	return 1
}

// ClassName extracts the constructor name from a tactic expression.
func ClassName(expr string) string {
	expr = strings.TrimSpace(expr)
	if i := strings.IndexByte(expr, '('); i >= 0 {
		expr = expr[:i]
	}
	return strings.TrimSpace(expr)
}
