package workflow

import (
	"fmt"

	"github.com/kbukum/canvasflow/validation"
)

// Document is a persisted workflow: metadata plus a node/edge snapshot.
type Document struct {
	Title       string `json:"title" yaml:"title" validate:"required,max=200"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" validate:"max=2000"`
	Thumbnail   string `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
	Nodes       []Node `json:"nodes" yaml:"nodes" validate:"dive"`
	Edges       []Edge `json:"edges" yaml:"edges" validate:"dive"`
}

// Validate checks the document structure: required fields, unique node ids
// and known node types. Edges that reference missing nodes and port type
// mismatches are not errors; see Warnings.
func (d *Document) Validate() error {
	v := validation.New().Merge("document", validation.ValidateStruct(d))
	v.Merge("nodes", ValidateNodes(d.Nodes))
	return v.Validate()
}

// ValidateNodes checks that node ids are unique and node types are known.
func ValidateNodes(nodes []Node) error {
	v := validation.New()
	seen := make(map[string]bool, len(nodes))
	for i, n := range nodes {
		field := fmt.Sprintf("nodes[%d]", i)
		if n.ID != "" {
			v.Custom(!seen[n.ID], field+".id", "duplicate node id "+n.ID)
			seen[n.ID] = true
		}
		v.Custom(n.Type == "" || n.Type.Valid(), field+".type", "Unknown node type: "+string(n.Type))
	}
	return v.Validate()
}

// Warnings reports advisory problems the engine tolerates: dangling edges,
// edges into undeclared ports, and data type mismatches between ports.
func Warnings(nodes []Node, edges []Edge) []string {
	idx := NewEdgeIndex(nodes, edges)
	var out []string
	for i, e := range edges {
		if idx.Dangling(e) {
			out = append(out, fmt.Sprintf("edges[%d]: references missing node (%s -> %s)", i, e.Source, e.Target))
			continue
		}
		if e.TargetHandle == "" {
			out = append(out, fmt.Sprintf("edges[%d]: no target handle, value is ignored", i))
			continue
		}
		src, _ := idx.Node(e.Source)
		dst, _ := idx.Node(e.Target)
		in, ok := dst.Input(e.TargetHandle)
		if !ok {
			out = append(out, fmt.Sprintf("edges[%d]: %s has no input %q", i, e.Target, e.TargetHandle))
			continue
		}
		if e.SourceHandle == "" {
			continue
		}
		if outPort, ok := src.Output(e.SourceHandle); ok && outPort.Type != in.Type {
			out = append(out, fmt.Sprintf("edges[%d]: %s.%s (%s) feeds %s.%s (%s)",
				i, e.Source, e.SourceHandle, outPort.Type, e.Target, e.TargetHandle, in.Type))
		}
	}
	return out
}

// NodeUpdate is a partial change to a node's transient execution state.
// Nil fields are left untouched; ClearError resets Error.
type NodeUpdate struct {
	NodeID     string  `json:"nodeId"`
	Status     Status  `json:"status,omitempty"`
	Result     any     `json:"result,omitempty"`
	Error      *string `json:"error,omitempty"`
	ClearError bool    `json:"clearError,omitempty"`
}

// UpdateFunc receives node updates synchronously during a run.
type UpdateFunc func(NodeUpdate)

// Apply writes u onto the matching node in nodes.
func (u NodeUpdate) Apply(nodes []Node) {
	for i := range nodes {
		if nodes[i].ID != u.NodeID {
			continue
		}
		d := &nodes[i].Data
		if u.Status != "" {
			d.Status = u.Status
		}
		if u.Status == StatusComplete {
			d.Result = u.Result
		}
		if u.ClearError {
			d.Error = ""
		}
		if u.Error != nil {
			d.Error = *u.Error
		}
		return
	}
}
