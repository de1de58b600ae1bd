package workflow

// InputRef is an incoming edge resolved to the port it feeds and its source.
type InputRef struct {
	Handle string `json:"handle"`
	Source string `json:"source"`
}

// EdgeIndex answers structural queries over a node/edge snapshot. It never
// fails: unknown ids yield empty results, since the editor may reference
// stale ids while a graph is being edited.
//
// The index is where duplicate ids and dangling edges are resolved: the
// first node with an id wins, and edges touching a missing node are left
// out of Edges and InputsOf.
type EdgeIndex struct {
	nodes    map[string]*Node
	order    []string
	edges    []Edge
	incoming map[string][]InputRef
}

// NewEdgeIndex indexes nodes and edges.
func NewEdgeIndex(nodes []Node, edges []Edge) *EdgeIndex {
	idx := &EdgeIndex{
		nodes:    make(map[string]*Node, len(nodes)),
		order:    make([]string, 0, len(nodes)),
		edges:    make([]Edge, 0, len(edges)),
		incoming: make(map[string][]InputRef),
	}
	for i := range nodes {
		if _, dup := idx.nodes[nodes[i].ID]; dup {
			continue
		}
		idx.nodes[nodes[i].ID] = &nodes[i]
		idx.order = append(idx.order, nodes[i].ID)
	}
	for _, e := range edges {
		if idx.Dangling(e) {
			continue
		}
		idx.edges = append(idx.edges, e)
		idx.incoming[e.Target] = append(idx.incoming[e.Target], InputRef{Handle: e.TargetHandle, Source: e.Source})
	}
	return idx
}

// InputsOf returns the edges targeting nodeID in edge-list order.
func (x *EdgeIndex) InputsOf(nodeID string) []InputRef {
	return x.incoming[nodeID]
}

// Edges returns the edges between known nodes in edge-list order.
func (x *EdgeIndex) Edges() []Edge {
	return x.edges
}

// Has reports whether a node with id exists.
func (x *EdgeIndex) Has(id string) bool {
	_, ok := x.nodes[id]
	return ok
}

// Node returns the node with id.
func (x *EdgeIndex) Node(id string) (*Node, bool) {
	n, ok := x.nodes[id]
	return n, ok
}

// IDs returns the distinct node ids in input order.
func (x *EdgeIndex) IDs() []string {
	return x.order
}

// Dangling reports whether e references a node outside the snapshot.
func (x *EdgeIndex) Dangling(e Edge) bool {
	return !x.Has(e.Source) || !x.Has(e.Target)
}
