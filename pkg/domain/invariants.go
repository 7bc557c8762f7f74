package domain

import (
	"errors"
	"fmt"
)

// CheckInvariants reports every structural rule the graph breaks, joined into one
// error. It returns nil for a well-formed graph.
func CheckInvariants(g Graph) error {
	var errs []error
	fail := func(rule int, format string, args ...any) {
		errs = append(errs, &InvariantError{Rule: rule, Detail: fmt.Sprintf(format, args...)})
	}

	nodes := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if nodes[n.ID] {
			fail(0, "duplicate node %q", n.ID)
		}
		nodes[n.ID] = true
	}
	if !nodes[GoalNodeID] {
		fail(0, "goal sentinel missing")
	}
	edgeIDs := make(map[string]bool, len(g.Edges))
	for _, e := range g.Edges {
		if edgeIDs[e.ID] {
			fail(0, "duplicate edge %q", e.ID)
		}
		edgeIDs[e.ID] = true
		if !nodes[e.Source] || !nodes[e.Target] {
			fail(0, "edge %q has a dangling endpoint", e.ID)
		}
		if e.IsOpen() && e.Target != GoalNodeID {
			fail(5, "sentinel edge %q does not point at the goal", e.ID)
		}
		if e.Animated != e.IsOpen() {
			fail(0, "edge %q animated flag out of sync", e.ID)
		}
	}

	// 1. exactly one source
	var sources []string
	incoming := make(map[string]int)
	for _, e := range g.Edges {
		incoming[e.Target]++
	}
	for _, n := range g.Nodes {
		if incoming[n.ID] == 0 && !n.IsGoal() {
			sources = append(sources, n.ID)
		}
	}
	if len(sources) != 1 {
		fail(1, "expected one source, found %d %v", len(sources), sources)
	}

	// 2. goal has no outgoing edge, 3. one tactic application per node
	rids := make(map[string]map[string]bool)
	for _, e := range g.Edges {
		if e.Source == GoalNodeID {
			fail(2, "goal sentinel has outgoing edge %q", e.ID)
			continue
		}
		if rids[e.Source] == nil {
			rids[e.Source] = make(map[string]bool)
		}
		rids[e.Source][e.ResolutionID] = true
	}
	for id, set := range rids {
		if len(set) > 1 {
			fail(3, "node %q has %d tactic applications", id, len(set))
		}
	}

	// 4. reachability
	if len(sources) == 1 {
		reached := map[string]bool{sources[0]: true}
		queue := []string{sources[0]}
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			for _, e := range g.Outgoing(id) {
				if !reached[e.Target] {
					reached[e.Target] = true
					queue = append(queue, e.Target)
				}
			}
		}
		for _, n := range g.Nodes {
			if !n.IsGoal() && !reached[n.ID] {
				fail(4, "node %q unreachable from source", n.ID)
			}
		}
	}

	// 5. every non-goal node has an outgoing edge
	outgoing := make(map[string]int)
	for _, e := range g.Edges {
		outgoing[e.Source]++
	}
	for _, n := range g.Nodes {
		if !n.IsGoal() && outgoing[n.ID] == 0 {
			fail(5, "node %q has no outgoing edge", n.ID)
		}
	}

	// 6. a resolution group never mixes sources
	groupSource := make(map[string]string)
	for _, e := range g.Edges {
		if e.ResolutionID == "" {
			continue
		}
		if s, ok := groupSource[e.ResolutionID]; ok && s != e.Source {
			fail(6, "resolution %q spans nodes %q and %q", e.ResolutionID, s, e.Source)
		}
		groupSource[e.ResolutionID] = e.Source
	}

	return errors.Join(errs...)
}
