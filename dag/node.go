package dag

import (
	"context"

	"github.com/kbukum/canvasflow/provider"
)

// Node is the execution unit in a graph.
type Node interface {
	Name() string
	Run(ctx context.Context, in Inputs) (any, error)
}

// Kinded is implemented by nodes that carry a type label for logs,
// spans and metrics.
type Kinded interface {
	Kind() string
}

// InputMerger is implemented by nodes that combine several upstream
// values arriving on the same input handle. Without it the last edge wins.
type InputMerger interface {
	MergeInput(handle string, existing, incoming any) any
}

// Inputs maps an input handle to the upstream result delivered on it.
type Inputs map[string]any

// Has reports whether handle received a value, even a nil one.
func (in Inputs) Has(handle string) bool {
	_, ok := in[handle]
	return ok
}

// String returns the value on handle if it is a non-empty string.
func (in Inputs) String(handle string) (string, bool) {
	s, ok := in[handle].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// KindOf returns the Kind of n, or "" when n has none.
func KindOf(n Node) string {
	if k, ok := n.(Kinded); ok {
		return k.Kind()
	}
	return ""
}

func mergeInput(n Node, handle string, existing, incoming any) any {
	if m, ok := n.(InputMerger); ok {
		return m.MergeInput(handle, existing, incoming)
	}
	return incoming
}

// Func adapts a function to Node.
func Func(name string, fn func(ctx context.Context, in Inputs) (any, error)) Node {
	return &funcNode{name: name, fn: fn}
}

type funcNode struct {
	name string
	fn   func(ctx context.Context, in Inputs) (any, error)
}

func (n *funcNode) Name() string { return n.name }
func (n *funcNode) Run(ctx context.Context, in Inputs) (any, error) {
	return n.fn(ctx, in)
}

// NodeConfig configures a provider-backed node.
type NodeConfig[I, O any] struct {
	Name string
	Kind string
	// Service does the node's work.
	Service provider.RequestResponse[I, O]
	// Extract builds the provider input from the collected inputs.
	Extract func(in Inputs) (I, error)
	// Merge combines values arriving on one handle. Nil is last-write-wins.
	Merge func(handle string, existing, incoming any) any
}

// FromProvider bridges a provider.RequestResponse into a Node. The
// provider output becomes the node result.
func FromProvider[I, O any](cfg NodeConfig[I, O]) Node {
	return &providerNode[I, O]{cfg: cfg}
}

type providerNode[I, O any] struct {
	cfg NodeConfig[I, O]
}

func (n *providerNode[I, O]) Name() string { return n.cfg.Name }
func (n *providerNode[I, O]) Kind() string { return n.cfg.Kind }

func (n *providerNode[I, O]) MergeInput(handle string, existing, incoming any) any {
	if n.cfg.Merge == nil {
		return incoming
	}
	return n.cfg.Merge(handle, existing, incoming)
}

func (n *providerNode[I, O]) Run(ctx context.Context, in Inputs) (any, error) {
	input, err := n.cfg.Extract(in)
	if err != nil {
		return nil, err
	}
	output, err := n.cfg.Service.Execute(ctx, input)
	if err != nil {
		return nil, err
	}
	return output, nil
}
