// Package engine executes workflow graphs. It turns workflow nodes and
// edges into a dag.Graph whose nodes dispatch through the nodes package,
// runs it sequentially in topological order, and reports node state
// changes as workflow.NodeUpdate values.
package engine

import (
	"context"
	"time"

	"github.com/kbukum/canvasflow/capability"
	"github.com/kbukum/canvasflow/dag"
	"github.com/kbukum/canvasflow/logger"
	"github.com/kbukum/canvasflow/nodes"
	"github.com/kbukum/canvasflow/observability"
	"github.com/kbukum/canvasflow/provider"
	"github.com/kbukum/canvasflow/workflow"
)

// ExecutionResult is the outcome of one run. Errors is keyed by node id,
// or by "workflow" for failures of the run as a whole.
type ExecutionResult struct {
	Success bool              `json:"success"`
	Results map[string]any    `json:"results"`
	Errors  map[string]string `json:"errors"`
	// Order is the scheduled order; it is empty when the graph has a cycle.
	Order []string `json:"order,omitempty"`
}

// WorkflowErrorKey is the Errors key for run-level failures.
const WorkflowErrorKey = dag.WorkflowErrorKey

// Executor runs workflows.
type Executor struct {
	dispatcher provider.RequestResponse[nodes.Call, any]
	runner     *dag.Engine
	log        *logger.Logger
	metrics    *observability.Metrics
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(x *Executor) {
		if log != nil {
			x.log = log
		}
	}
}

// WithMetrics records run and node metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(x *Executor) { x.metrics = m }
}

// WithDispatcher replaces the node dispatcher.
func WithDispatcher(d provider.RequestResponse[nodes.Call, any]) Option {
	return func(x *Executor) { x.dispatcher = d }
}

// New creates an Executor whose generative nodes call inv.
func New(inv capability.Invoker, opts ...Option) *Executor {
	x := &Executor{log: logger.Nop()}
	for _, opt := range opts {
		opt(x)
	}
	if x.dispatcher == nil {
		x.dispatcher = nodes.NewDispatcher(inv)
	}
	x.log = x.log.WithComponent("engine")
	x.runner = dag.NewEngine(dag.WithLogger(x.log))
	return x
}

// Execute runs the workflow. Node state changes are passed to onUpdate,
// which may be nil, synchronously and in execution order. A cyclic graph
// fails before any node runs and produces no updates.
func (x *Executor) Execute(ctx context.Context, ns []workflow.Node, es []workflow.Edge, onUpdate workflow.UpdateFunc) ExecutionResult {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, observability.SpanRun)
	defer span.End()
	observability.SetSpanAttribute(ctx, "workflow.nodes", len(ns))
	if x.metrics != nil {
		x.metrics.RunStarted(ctx)
	}

	res := x.runner.Execute(ctx, x.graph(workflow.NewEdgeIndex(ns, es)), func(u dag.Update) {
		if onUpdate != nil {
			onUpdate(toNodeUpdate(u))
		}
	})

	status := "complete"
	if !res.Success {
		status = "failed"
		if msg, ok := res.Errors[WorkflowErrorKey]; ok {
			observability.SetSpanAttribute(ctx, observability.AttrErrorMessage, msg)
		}
	}
	observability.SetSpanAttribute(ctx, observability.AttrStatus, status)
	if x.metrics != nil {
		x.metrics.RunFinished(ctx, status, time.Since(start))
	}
	x.log.WithContext(ctx).Info("workflow executed", logger.Fields(
		logger.FieldStatus, status,
		logger.FieldDuration, time.Since(start).Milliseconds(),
		"nodes", len(ns),
		"completed", len(res.Results),
	))

	return ExecutionResult{
		Success: res.Success,
		Results: res.Results,
		Errors:  res.Errors,
		Order:   res.Order,
	}
}

// Plan is the schedule of a workflow without running it.
type Plan struct {
	Order  []string   `json:"order"`
	Levels [][]string `json:"levels"`
	// Inputs lists, per node, the upstream nodes feeding its ports.
	Inputs map[string][]workflow.InputRef `json:"inputs"`
}

// Plan returns the execution order, the dependency levels and the
// resolved inputs of the workflow.
func (x *Executor) Plan(ns []workflow.Node, es []workflow.Edge) (*Plan, error) {
	idx := workflow.NewEdgeIndex(ns, es)
	g := x.graph(idx)
	order, err := dag.Sort(g)
	if err != nil {
		return nil, err
	}
	levels, err := dag.BuildLevels(g)
	if err != nil {
		return nil, err
	}
	inputs := make(map[string][]workflow.InputRef)
	for _, id := range idx.IDs() {
		if refs := idx.InputsOf(id); len(refs) > 0 {
			inputs[id] = refs
		}
	}
	return &Plan{Order: order, Levels: levels, Inputs: inputs}, nil
}

// graph builds the dag from the index, so duplicate ids and dangling
// edges are already resolved.
func (x *Executor) graph(idx *workflow.EdgeIndex) *dag.Graph {
	ids := idx.IDs()
	edges := idx.Edges()
	g := &dag.Graph{
		Nodes: make([]dag.Node, 0, len(ids)),
		Edges: make([]dag.Edge, 0, len(edges)),
	}
	for _, id := range ids {
		n, _ := idx.Node(id)
		g.Nodes = append(g.Nodes, x.node(*n))
	}
	for _, e := range edges {
		g.Edges = append(g.Edges, dag.Edge{From: e.Source, To: e.Target, Handle: e.TargetHandle})
	}
	return g
}

func (x *Executor) node(n workflow.Node) dag.Node {
	node := dag.FromProvider(dag.NodeConfig[nodes.Call, any]{
		Name:    n.ID,
		Kind:    string(n.Type),
		Service: x.dispatcher,
		Extract: func(in dag.Inputs) (nodes.Call, error) {
			return nodes.Call{Node: n, Inputs: in}, nil
		},
		Merge: func(handle string, existing, incoming any) any {
			return nodes.MergeInput(n.Type, handle, existing, incoming)
		},
	})
	return dag.WithTracing(dag.WithMetrics(node, x.metrics))
}

func toNodeUpdate(u dag.Update) workflow.NodeUpdate {
	out := workflow.NodeUpdate{NodeID: u.Node}
	switch u.Status {
	case dag.StatusRunning:
		out.Status = workflow.StatusRunning
		out.ClearError = true
	case dag.StatusComplete:
		out.Status = workflow.StatusComplete
		out.Result = u.Result
	case dag.StatusError:
		out.Status = workflow.StatusError
		msg := u.Error
		out.Error = &msg
	}
	return out
}
