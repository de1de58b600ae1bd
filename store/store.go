// Package store persists workflow documents, their version history and
// execution records. Every update appends a version; only the newest
// MaxVersions are kept.
package store

import (
	"context"
	"time"

	"github.com/kbukum/canvasflow/workflow"
)

// MaxVersions is the number of versions kept per workflow.
const MaxVersions = 20

// Workflow is a stored document with its identity and current version.
type Workflow struct {
	ID string `json:"id"`
	workflow.Document
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Version is one snapshot in a workflow's history.
type Version struct {
	WorkflowID string          `json:"workflowId"`
	Version    int             `json:"version"`
	Title      string          `json:"title"`
	Nodes      []workflow.Node `json:"nodes"`
	Edges      []workflow.Edge `json:"edges"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// ExecutionStatus is the lifecycle state of an execution record.
type ExecutionStatus string

const (
	ExecutionPending  ExecutionStatus = "pending"
	ExecutionRunning  ExecutionStatus = "running"
	ExecutionComplete ExecutionStatus = "complete"
	ExecutionFailed   ExecutionStatus = "failed"
)

// Execution records one run of a workflow. WorkflowID is empty for runs
// of unsaved graphs.
type Execution struct {
	ID          string            `json:"id"`
	WorkflowID  string            `json:"workflowId,omitempty"`
	Status      ExecutionStatus   `json:"status"`
	StartedAt   *time.Time        `json:"startedAt,omitempty"`
	CompletedAt *time.Time        `json:"completedAt,omitempty"`
	Results     map[string]any    `json:"results,omitempty"`
	Errors      map[string]string `json:"errors,omitempty"`
	// Error is the first failure message, for listings.
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Outcome is what FinishExecution records.
type Outcome struct {
	Success bool
	Results map[string]any
	Errors  map[string]string
}

// Store persists workflows and executions. Missing records are reported
// as NOT_FOUND AppErrors.
type Store interface {
	Create(ctx context.Context, doc workflow.Document) (*Workflow, error)
	Update(ctx context.Context, id string, doc workflow.Document) (*Workflow, error)
	Get(ctx context.Context, id string) (*Workflow, error)
	// List returns workflows, most recently updated first.
	List(ctx context.Context) ([]Workflow, error)
	Delete(ctx context.Context, id string) error
	// Versions returns the kept versions, newest first.
	Versions(ctx context.Context, id string) ([]Version, error)
	Version(ctx context.Context, id string, version int) (*Version, error)

	// StartExecution creates a pending execution record.
	StartExecution(ctx context.Context, workflowID string) (*Execution, error)
	// MarkRunning moves an execution to running and stamps StartedAt.
	MarkRunning(ctx context.Context, id string) error
	// FinishExecution records the outcome as complete or failed.
	FinishExecution(ctx context.Context, id string, out Outcome) error
	Execution(ctx context.Context, id string) (*Execution, error)
	// Executions returns a workflow's executions, newest first.
	Executions(ctx context.Context, workflowID string) ([]Execution, error)
}

func outcomeStatus(out Outcome) ExecutionStatus {
	if out.Success {
		return ExecutionComplete
	}
	return ExecutionFailed
}

// firstError picks a stable message for listings: the workflow-level
// error if present, otherwise the smallest node id.
func firstError(errs map[string]string) string {
	if msg, ok := errs[workflowErrorKey]; ok {
		return msg
	}
	best := ""
	for id := range errs {
		if best == "" || id < best {
			best = id
		}
	}
	return errs[best]
}

const workflowErrorKey = "workflow"
