package starlark

import (
	"fmt"
	"strings"

	"github.com/aretw0/proofweave/pkg/catalog"
	"github.com/aretw0/proofweave/pkg/domain"
	"go.starlark.net/syntax"
)

// goalState is one node of the simulated proof tree.
type goalState struct {
	goal     string
	tactic   string
	closed   bool
	children []*goalState
}

func (s *goalState) open() bool {
	return s.tactic == ""
}

func (s *goalState) sorryFree() bool {
	if s.closed {
		return true
	}
	if s.open() || len(s.children) == 0 {
		return false
	}
	for _, c := range s.children {
		if !c.sorryFree() {
			return false
		}
	}
	return true
}

type machine struct {
	catalog *catalog.Catalog
	source  []string

	assistant  string
	variables  []domain.Variable
	hypotheses []domain.Hypothesis

	root    *goalState
	current *goalState
	console []string
	final   any
}

func (m *machine) exec(stmt syntax.Stmt) error {
	switch s := stmt.(type) {
	case *syntax.AssignStmt:
		return m.assign(s)
	case *syntax.ExprStmt:
		call, ok := s.X.(*syntax.CallExpr)
		if !ok {
			return m.errorf(s, "expected a call")
		}
		return m.call(call)
	case *syntax.IfStmt:
		if !m.truthy(s.Cond) {
			for _, st := range s.False {
				if err := m.exec(st); err != nil {
					return err
				}
			}
			return nil
		}
		for _, st := range s.True {
			if err := m.exec(st); err != nil {
				return err
			}
		}
		return nil
	default:
		return m.errorf(stmt, "unsupported statement")
	}
}

func (m *machine) assign(s *syntax.AssignStmt) error {
	lhs, ok := s.LHS.(*syntax.Ident)
	if !ok || s.Op != syntax.EQ {
		return m.errorf(s, "unsupported assignment")
	}
	call, ok := s.RHS.(*syntax.CallExpr)
	if !ok {
		return m.errorf(s, "unsupported assignment")
	}
	if fn, ok := call.Fn.(*syntax.Ident); ok && fn.Name == "ProofAssistant" {
		m.assistant = lhs.Name
		return nil
	}
	method, err := m.method(call)
	if err != nil {
		return err
	}
	if method != "var" {
		return m.errorf(s, "unsupported assignment from p.%s", method)
	}
	if len(call.Args) != 2 {
		return m.errorf(call, "var takes a type and a name")
	}
	typ, err := m.stringArg(call.Args[0])
	if err != nil {
		return err
	}
	m.variables = append(m.variables, domain.Variable{Name: lhs.Name, Type: typ})
	return nil
}

// truthy only understands `p.current_node`.
func (m *machine) truthy(cond syntax.Expr) bool {
	dot, ok := cond.(*syntax.DotExpr)
	if !ok || dot.Name.Name != "current_node" {
		return false
	}
	return m.current != nil
}

func (m *machine) method(call *syntax.CallExpr) (string, error) {
	dot, ok := call.Fn.(*syntax.DotExpr)
	if !ok {
		return "", m.errorf(call, "expected a call on the proof assistant")
	}
	recv, ok := dot.X.(*syntax.Ident)
	if !ok || m.assistant == "" || recv.Name != m.assistant {
		return "", m.errorf(call, "NameError: %s is not a proof assistant", m.text(dot.X))
	}
	return dot.Name.Name, nil
}

func (m *machine) call(call *syntax.CallExpr) error {
	method, err := m.method(call)
	if err != nil {
		return err
	}
	switch method {
	case "var":
		return nil
	case "assume":
		if len(call.Args) != 2 {
			return m.errorf(call, "assume takes an expression and a name")
		}
		name, err := m.stringArg(call.Args[1])
		if err != nil {
			return err
		}
		m.hypotheses = append(m.hypotheses, domain.Hypothesis{Name: name, Expression: m.text(call.Args[0])})
		return nil
	case "begin_proof":
		if len(call.Args) != 1 {
			return m.errorf(call, "begin_proof takes one goal")
		}
		m.root = &goalState{goal: m.text(call.Args[0])}
		m.current = m.root
		m.console = append(m.console, "Starting proof.  Current proof state:")
		m.console = append(m.console, strings.Split(m.label(m.root), "\n")...)
		return nil
	case "use", "use_lemma":
		if len(call.Args) != 1 {
			return m.errorf(call, "%s takes one argument", method)
		}
		return m.use(call, m.text(call.Args[0]))
	case "next_goal":
		if m.current == nil {
			return m.errorf(call, "no goals remaining")
		}
		m.current = m.nextOpen(m.current)
		return nil
	case "proof":
		if m.root == nil {
			return m.errorf(call, "no proof in progress")
		}
		if n := len(m.openGoals()); n > 0 {
			m.final = fmt.Sprintf("Proof incomplete: %d goal(s) remaining.", n)
		} else {
			m.final = "Proof complete!"
		}
		m.console = append(m.console, m.final.(string))
		return nil
	default:
		return m.errorf(call, "AttributeError: ProofAssistant has no method %q", method)
	}
}

func (m *machine) use(call *syntax.CallExpr, tactic string) error {
	if m.root == nil {
		return m.errorf(call, "no proof in progress")
	}
	if m.current == nil {
		return m.errorf(call, "no goals remaining")
	}

	at := m.current
	at.tactic = tactic
	entry, known := m.catalog.Resolve(tactic)
	switch {
	case known && entry.Closes():
		at.closed = true
		m.console = append(m.console, fmt.Sprintf("%s: goal closed.", tactic))
	default:
		n := 1
		if known {
			n = entry.Branches()
		}
		class := catalog.ClassName(tactic)
		for i := range n {
			goal := fmt.Sprintf("%s [%s]", at.goal, class)
			if n > 1 {
				goal = fmt.Sprintf("%s [%s %d/%d]", at.goal, class, i+1, n)
			}
			at.children = append(at.children, &goalState{goal: goal})
		}
		m.console = append(m.console, fmt.Sprintf("%s: %d new goal(s).", tactic, n))
	}

	if len(at.children) > 0 {
		m.current = at.children[0]
	} else {
		m.current = m.nextOpen(at)
	}
	return nil
}

// preorder lists the states parent first, children in order.
func (m *machine) preorder() []*goalState {
	var out []*goalState
	var walk func(*goalState)
	walk = func(s *goalState) {
		out = append(out, s)
		for _, c := range s.children {
			walk(c)
		}
	}
	if m.root != nil {
		walk(m.root)
	}
	return out
}

func (m *machine) openGoals() []*goalState {
	var out []*goalState
	for _, s := range m.preorder() {
		if s.open() {
			out = append(out, s)
		}
	}
	return out
}

// nextOpen returns the first open state after from in preorder, wrapping
// around, or nil when nothing is open.
func (m *machine) nextOpen(from *goalState) *goalState {
	all := m.preorder()
	idx := 0
	for i, s := range all {
		if s == from {
			idx = i
			break
		}
	}
	for k := 1; k <= len(all); k++ {
		if s := all[(idx+k)%len(all)]; s.open() {
			return s
		}
	}
	return nil
}

func (m *machine) label(s *goalState) string {
	var b strings.Builder
	for _, v := range m.variables {
		fmt.Fprintf(&b, "%s: %s\n", v.Name, v.Type)
	}
	for _, h := range m.hypotheses {
		fmt.Fprintf(&b, "%s: %s\n", h.Name, h.Expression)
	}
	b.WriteString("|- " + s.goal)
	return b.String()
}

func (m *machine) tree() domain.ProofTree {
	states := m.preorder()
	ids := make(map[*goalState]string, len(states))
	for i, s := range states {
		ids[s] = fmt.Sprintf("n%d", i)
	}

	tree := domain.ProofTree{ProofComplete: m.root.sorryFree()}
	for _, s := range states {
		tactic := s.tactic
		if s.open() {
			tactic = domain.SorryTactic
		}
		tree.Nodes = append(tree.Nodes, domain.TreeNode{
			ID:        ids[s],
			Label:     m.label(s),
			Tactic:    tactic,
			SorryFree: s.sorryFree(),
		})
		for _, c := range s.children {
			tree.Edges = append(tree.Edges, domain.TreeEdge{Source: ids[s], Target: ids[c], Label: tactic})
		}
	}
	return tree
}

func (m *machine) stringArg(x syntax.Expr) (string, error) {
	lit, ok := x.(*syntax.Literal)
	if !ok || lit.Token != syntax.STRING {
		return "", m.errorf(x, "expected a string literal")
	}
	return lit.Value.(string), nil
}

// text returns the source text of n.
func (m *machine) text(n syntax.Node) string {
	start, end := n.Span()
	if start.Line < 1 || int(end.Line) > len(m.source) {
		return ""
	}
	var b strings.Builder
	for line := start.Line; line <= end.Line; line++ {
		runes := []rune(m.source[line-1])
		from, to := 0, len(runes)
		if line == start.Line {
			from = int(start.Col) - 1
		}
		if line == end.Line {
			to = int(end.Col) - 1
		}
		from, to = max(0, min(from, len(runes))), max(0, min(to, len(runes)))
		if from < to {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strings.TrimSpace(string(runes[from:to])))
		}
	}
	return b.String()
}

func (m *machine) errorf(n syntax.Node, format string, args ...any) error {
	start, _ := n.Span()
	return fmt.Errorf("line %d: %s", start.Line, fmt.Sprintf(format, args...))
}
