package domain

// Graph is the editable proof graph: an arena of nodes and edges keyed by id.
// Adjacency is derived on demand, never stored.
type Graph struct {
	Nodes []ProofNode  `json:"nodes" yaml:"nodes"`
	Edges []TacticEdge `json:"edges" yaml:"edges"`
}

// Clone returns a deep copy of the graph.
func (g Graph) Clone() Graph {
	out := Graph{
		Nodes: make([]ProofNode, len(g.Nodes)),
		Edges: make([]TacticEdge, len(g.Edges)),
	}
	copy(out.Nodes, g.Nodes)
	copy(out.Edges, g.Edges)
	return out
}

// Node looks up a node by id.
func (g Graph) Node(id string) (ProofNode, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return ProofNode{}, false
}

// Edge looks up an edge by id.
func (g Graph) Edge(id string) (TacticEdge, bool) {
	for _, e := range g.Edges {
		if e.ID == id {
			return e, true
		}
	}
	return TacticEdge{}, false
}

// Outgoing returns the edges leaving id, in graph order.
func (g Graph) Outgoing(id string) []TacticEdge {
	var out []TacticEdge
	for _, e := range g.Edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}

// Incoming returns the edges entering id, in graph order.
func (g Graph) Incoming(id string) []TacticEdge {
	var in []TacticEdge
	for _, e := range g.Edges {
		if e.Target == id {
			in = append(in, e)
		}
	}
	return in
}

// Source returns the node with no incoming edge. The goal sentinel is never
// the source, even in a graph where nothing points at it yet.
func (g Graph) Source() (ProofNode, bool) {
	targets := make(map[string]bool, len(g.Edges))
	for _, e := range g.Edges {
		targets[e.Target] = true
	}
	for _, n := range g.Nodes {
		if !targets[n.ID] && !n.IsGoal() {
			return n, true
		}
	}
	return ProofNode{}, false
}

// OpenEdges returns the unresolved sentinel edges, one per open goal.
func (g Graph) OpenEdges() []TacticEdge {
	var open []TacticEdge
	for _, e := range g.Edges {
		if e.IsOpen() {
			open = append(open, e)
		}
	}
	return open
}

// IsOpenLeaf reports whether id is the source of an unresolved sentinel edge.
func (g Graph) IsOpenLeaf(id string) bool {
	for _, e := range g.Edges {
		if e.Source == id && e.IsOpen() {
			return true
		}
	}
	return false
}

// Complete reports whether no goal is left open.
func (g Graph) Complete() bool {
	return len(g.OpenEdges()) == 0
}
