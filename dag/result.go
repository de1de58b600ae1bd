package dag

import "time"

// WorkflowErrorKey is the Errors key used for failures that belong to the
// run as a whole rather than to a node.
const WorkflowErrorKey = "workflow"

// Result is the outcome of one Execute call.
type Result struct {
	Success bool
	// Order is the scheduled order; empty when scheduling failed.
	Order   []string
	Results map[string]any
	// Errors is keyed by node name or WorkflowErrorKey.
	Errors      map[string]string
	NodeResults map[string]NodeResult
	Duration    time.Duration
}

// NodeResult holds the outcome of a single node.
type NodeResult struct {
	Name     string
	Status   Status
	Duration time.Duration
	Output   any
	Error    error
}

func newResult() *Result {
	return &Result{
		Results:     make(map[string]any),
		Errors:      make(map[string]string),
		NodeResults: make(map[string]NodeResult),
	}
}
