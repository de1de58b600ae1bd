package nodes

import (
	"context"

	"github.com/kbukum/canvasflow/capability"
	apperrors "github.com/kbukum/canvasflow/errors"
	"github.com/kbukum/canvasflow/workflow"
)

// Dispatcher runs a node through the handler for its type.
type Dispatcher struct {
	invoker capability.Invoker
}

// NewDispatcher creates a Dispatcher that sends generative nodes to inv.
func NewDispatcher(inv capability.Invoker) *Dispatcher {
	return &Dispatcher{invoker: inv}
}

func (d *Dispatcher) Name() string { return "nodes" }

func (d *Dispatcher) IsAvailable(_ context.Context) bool { return d.invoker != nil }

// Execute computes the result of call.Node. Unknown types fail with
// UNKNOWN_NODE_TYPE.
func (d *Dispatcher) Execute(ctx context.Context, call Call) (any, error) {
	h, ok := handlers[call.Node.Type]
	if !ok {
		return nil, apperrors.UnknownNodeType(string(call.Node.Type))
	}
	if d.invoker == nil && call.Node.Type.IsGenerative() {
		return nil, apperrors.ServiceUnavailable("generation service")
	}
	return h(ctx, d.invoker, call)
}

// MergeInput combines two values arriving on the same handle of a node of
// type t. Prompts into text-to-image are joined with ", " in edge order;
// any other handle keeps the later value.
func MergeInput(t workflow.NodeType, handle string, existing, incoming any) any {
	if t != workflow.TypeTextToImage || handle != "prompt" {
		return incoming
	}
	a, aok := existing.(string)
	b, bok := incoming.(string)
	switch {
	case !aok || a == "":
		return incoming
	case !bok || b == "":
		return existing
	}
	return a + ", " + b
}
