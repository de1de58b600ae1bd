package workflow

import (
	"strconv"
	"strings"
)

// Position is the canvas location of a node. The engine ignores it.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Node is a unit of work in the graph.
type Node struct {
	ID       string   `json:"id" yaml:"id" validate:"required"`
	Type     NodeType `json:"type" yaml:"type" validate:"required"`
	Position Position `json:"position" yaml:"position"`
	Data     NodeData `json:"data" yaml:"data"`
}

// NodeData holds the ports, parameters and transient execution state of a node.
type NodeData struct {
	Label      string      `json:"label" yaml:"label"`
	Category   Category    `json:"category,omitempty" yaml:"category,omitempty"`
	Inputs     []Port      `json:"inputs" yaml:"inputs"`
	Outputs    []Port      `json:"outputs" yaml:"outputs"`
	Parameters []Parameter `json:"parameters" yaml:"parameters"`
	Status     Status      `json:"status,omitempty" yaml:"status,omitempty"`
	Result     any         `json:"result,omitempty" yaml:"result,omitempty"`
	Error      string      `json:"error,omitempty" yaml:"error,omitempty"`
}

// Port is a named input or output of a node.
type Port struct {
	ID       string   `json:"id" yaml:"id"`
	Label    string   `json:"label" yaml:"label"`
	Type     DataType `json:"type" yaml:"type"`
	Required bool     `json:"required,omitempty" yaml:"required,omitempty"`
}

// Option is one legal value of a select parameter.
type Option struct {
	Label string `json:"label" yaml:"label"`
	Value any    `json:"value" yaml:"value"`
}

// Parameter is a configurable value read by a node handler at run time.
type Parameter struct {
	ID      string    `json:"id" yaml:"id"`
	Label   string    `json:"label" yaml:"label"`
	Type    ParamType `json:"type" yaml:"type"`
	Value   any       `json:"value" yaml:"value"`
	Options []Option  `json:"options,omitempty" yaml:"options,omitempty"`
	Min     *float64  `json:"min,omitempty" yaml:"min,omitempty"`
	Max     *float64  `json:"max,omitempty" yaml:"max,omitempty"`
	Step    *float64  `json:"step,omitempty" yaml:"step,omitempty"`
}

// Edge connects an output port of Source to an input port of Target.
type Edge struct {
	ID           string `json:"id,omitempty" yaml:"id,omitempty"`
	Source       string `json:"source" yaml:"source" validate:"required"`
	Target       string `json:"target" yaml:"target" validate:"required"`
	SourceHandle string `json:"sourceHandle,omitempty" yaml:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty" yaml:"targetHandle,omitempty"`
}

// Param returns the value of parameter id. Unset values (nil, "", 0, false)
// report ok=false so callers fall back to their default.
func (n *Node) Param(id string) (any, bool) {
	for _, p := range n.Data.Parameters {
		if p.ID == id {
			return p.Value, !isZero(p.Value)
		}
	}
	return nil, false
}

// ParamString returns parameter id as a string, or def when unset.
func (n *Node) ParamString(id, def string) string {
	v, ok := n.Param(id)
	if !ok {
		return def
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	}
	return def
}

// ParamInt returns parameter id as an int, or def when unset or not numeric.
func (n *Node) ParamInt(id string, def int) int {
	v, ok := n.Param(id)
	if !ok {
		return def
	}
	if i, ok := toInt(v); ok && i != 0 {
		return i
	}
	return def
}

// SetParam sets parameter id, appending it when the node does not declare it.
func (n *Node) SetParam(id string, value any) {
	for i := range n.Data.Parameters {
		if n.Data.Parameters[i].ID == id {
			n.Data.Parameters[i].Value = value
			return
		}
	}
	n.Data.Parameters = append(n.Data.Parameters, Parameter{ID: id, Label: id, Type: ParamText, Value: value})
}

// Input returns the declared input port id.
func (n *Node) Input(id string) (Port, bool) {
	for _, p := range n.Data.Inputs {
		if p.ID == id {
			return p, true
		}
	}
	return Port{}, false
}

// Output returns the declared output port id.
func (n *Node) Output(id string) (Port, bool) {
	for _, p := range n.Data.Outputs {
		if p.ID == id {
			return p, true
		}
	}
	return Port{}, false
}

func isZero(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case bool:
		return !val
	case float64:
		return val == 0
	case int:
		return val == 0
	case int64:
		return val == 0
	}
	return false
}

// toInt converts JSON/YAML numbers and numeric strings such as "5" or "5s".
func toInt(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		return int(val), true
	case string:
		i, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(val), "s"))
		return i, err == nil
	}
	return 0, false
}
