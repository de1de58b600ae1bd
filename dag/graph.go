package dag

import (
	apperrors "github.com/kbukum/canvasflow/errors"
)

// ErrCycle matches the error returned for cyclic graphs via errors.Is.
var ErrCycle error = apperrors.CycleDetected()

// Graph is an ordered node list plus edges. Order matters: it decides
// ties between nodes that are ready at the same time.
type Graph struct {
	Nodes []Node
	Edges []Edge
}

// Edge makes To depend on From. A non-empty Handle delivers From's
// result to To under that input key.
type Edge struct {
	From   string
	To     string
	Handle string
}

// plan is the indexed form of a Graph. Nodes with a repeated name after
// the first are dropped, as are edges touching unknown nodes.
type plan struct {
	nodes    map[string]Node
	order    []string
	incoming map[string][]Edge
	outgoing map[string][]string
	inDegree map[string]int
}

func newPlan(g *Graph) *plan {
	p := &plan{
		nodes:    make(map[string]Node, len(g.Nodes)),
		order:    make([]string, 0, len(g.Nodes)),
		incoming: make(map[string][]Edge),
		outgoing: make(map[string][]string),
		inDegree: make(map[string]int, len(g.Nodes)),
	}
	for _, n := range g.Nodes {
		name := n.Name()
		if _, dup := p.nodes[name]; dup {
			continue
		}
		p.nodes[name] = n
		p.order = append(p.order, name)
		p.inDegree[name] = 0
	}
	for _, e := range g.Edges {
		_, okFrom := p.nodes[e.From]
		_, okTo := p.nodes[e.To]
		if !okFrom || !okTo {
			continue
		}
		p.incoming[e.To] = append(p.incoming[e.To], e)
		p.outgoing[e.From] = append(p.outgoing[e.From], e.To)
		p.inDegree[e.To]++
	}
	return p
}

// Sort returns the node names in execution order, or a CYCLE_DETECTED
// AppError when no such order exists.
func Sort(g *Graph) ([]string, error) {
	p := newPlan(g)
	inDegree := p.inDegree

	queue := make([]string, 0, len(p.order))
	for _, name := range p.order {
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}

	order := make([]string, 0, len(p.order))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		order = append(order, name)
		for _, next := range p.outgoing[name] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(order) != len(p.order) {
		return nil, apperrors.CycleDetected().
			WithDetail("scheduled", len(order)).
			WithDetail("total", len(p.order))
	}
	return order, nil
}

// BuildLevels groups nodes by dependency depth. Every node in a level
// depends only on nodes in earlier levels. Within a level, nodes appear in
// the order Sort would run them.
func BuildLevels(g *Graph) ([][]string, error) {
	p := newPlan(g)
	inDegree := p.inDegree

	var current []string
	for _, name := range p.order {
		if inDegree[name] == 0 {
			current = append(current, name)
		}
	}

	var levels [][]string
	visited := 0
	for len(current) > 0 {
		levels = append(levels, current)
		visited += len(current)

		var next []string
		for _, name := range current {
			for _, dep := range p.outgoing[name] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		current = next
	}

	if visited != len(p.order) {
		return nil, apperrors.CycleDetected()
	}
	return levels, nil
}
