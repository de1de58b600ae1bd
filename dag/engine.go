package dag

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/kbukum/canvasflow/errors"
	"github.com/kbukum/canvasflow/logger"
)

// Status is the state reported for a node through an Update.
type Status string

const (
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)

// Update is a node state change reported while a graph runs.
type Update struct {
	Node   string
	Status Status
	Result any
	Error  string
}

// UpdateFunc receives updates synchronously, in execution order.
type UpdateFunc func(Update)

// Engine runs a graph sequentially in topological order and stops at the
// first node failure.
type Engine struct {
	log *logger.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for node lifecycle messages.
func WithLogger(log *logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// NewEngine creates an Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{log: logger.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs g. It never returns an error: a cycle, cancellation or a
// panic is reported under WorkflowErrorKey, a node failure under the
// node's name. onUpdate may be nil.
//
// A cyclic graph produces no updates and no results. ctx is checked
// before each node; a node already dispatched is left to its own
// timeout handling.
func (e *Engine) Execute(ctx context.Context, g *Graph, onUpdate UpdateFunc) (res *Result) {
	start := time.Now()
	res = newResult()
	log := e.log.WithContext(ctx)
	emit := func(u Update) {
		if onUpdate != nil {
			onUpdate(u)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("%v", r)
			if err, ok := r.(error); ok {
				msg = apperrors.Message(err)
			}
			res.Errors[WorkflowErrorKey] = msg
			log.Error("graph execution panicked", logger.Fields("panic", msg))
		}
		res.Success = len(res.Errors) == 0
		res.Duration = time.Since(start)
	}()

	order, err := Sort(g)
	if err != nil {
		res.Errors[WorkflowErrorKey] = apperrors.Message(err)
		log.Warn("graph not executed", logger.ErrorFields("sort", err))
		return res
	}
	res.Order = order

	p := newPlan(g)
	state := NewState()
	for _, name := range order {
		if err := ctx.Err(); err != nil {
			res.Errors[WorkflowErrorKey] = cancelMessage(err)
			log.Warn("graph execution canceled", logger.Fields("next_node", name))
			break
		}

		node := p.nodes[name]
		emit(Update{Node: name, Status: StatusRunning})

		nr := e.runNode(ctx, node, collectInputs(p, node, state))
		res.NodeResults[name] = nr
		if nr.Error != nil {
			msg := apperrors.Message(nr.Error)
			if msg == "" {
				msg = "Execution failed"
			}
			res.Errors[name] = msg
			emit(Update{Node: name, Status: StatusError, Error: msg})
			log.Warn("node failed", logger.Fields(logger.FieldNodeID, name, logger.FieldNodeType, KindOf(node), logger.FieldError, msg))
			break
		}

		state.Set(name, nr.Output)
		res.Results[name] = nr.Output
		emit(Update{Node: name, Status: StatusComplete, Result: nr.Output})
	}
	return res
}

func (e *Engine) runNode(ctx context.Context, node Node, in Inputs) NodeResult {
	start := time.Now()
	e.log.Debug("node started", logger.Fields(logger.FieldNodeID, node.Name(), logger.FieldNodeType, KindOf(node)))

	output, err := node.Run(ctx, in)
	nr := NodeResult{Name: node.Name(), Duration: time.Since(start)}
	if err != nil {
		nr.Status = StatusError
		nr.Error = err
		return nr
	}
	nr.Status = StatusComplete
	nr.Output = output
	e.log.Debug("node completed", logger.DurationFields(node.Name(), nr.Duration))
	return nr
}

// collectInputs gathers this run's upstream results for node, walking
// incoming edges in edge-list order. Edges without a handle, and sources
// that have not produced a result, contribute nothing.
func collectInputs(p *plan, node Node, state *State) Inputs {
	in := make(Inputs)
	for _, edge := range p.incoming[node.Name()] {
		if edge.Handle == "" {
			continue
		}
		value, ok := state.Get(edge.From)
		if !ok {
			continue
		}
		if existing, seen := in[edge.Handle]; seen {
			value = mergeInput(node, edge.Handle, existing, value)
		}
		in[edge.Handle] = value
	}
	return in
}

func cancelMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "Workflow execution timed out"
	}
	return "Workflow execution canceled"
}
