package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/kbukum/canvasflow/errors"
	"github.com/kbukum/canvasflow/workflow"
)

// Memory is an in-process Store.
type Memory struct {
	mu         sync.RWMutex
	workflows  map[string]*Workflow
	versions   map[string][]Version
	executions map[string]*Execution
	now        func() time.Time
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		workflows:  make(map[string]*Workflow),
		versions:   make(map[string][]Version),
		executions: make(map[string]*Execution),
		now:        time.Now,
	}
}

func (m *Memory) Create(_ context.Context, doc workflow.Document) (*Workflow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	w := &Workflow{ID: uuid.NewString(), Document: doc, Version: 1, CreatedAt: now, UpdatedAt: now}
	m.workflows[w.ID] = w
	m.versions[w.ID] = []Version{snapshot(w, now)}
	out := *w
	return &out, nil
}

func (m *Memory) Update(_ context.Context, id string, doc workflow.Document) (*Workflow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.workflows[id]
	if !ok {
		return nil, apperrors.NotFound("workflow", id)
	}
	now := m.now().UTC()
	w.Document = doc
	w.UpdatedAt = now
	w.Version = latest(m.versions[id]) + 1

	history := append(m.versions[id], snapshot(w, now))
	if len(history) > MaxVersions {
		history = append([]Version(nil), history[len(history)-MaxVersions:]...)
	}
	m.versions[id] = history
	out := *w
	return &out, nil
}

func (m *Memory) Get(_ context.Context, id string) (*Workflow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.workflows[id]
	if !ok {
		return nil, apperrors.NotFound("workflow", id)
	}
	out := *w
	return &out, nil
}

func (m *Memory) List(_ context.Context) ([]Workflow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Workflow, 0, len(m.workflows))
	for _, w := range m.workflows {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.workflows[id]; !ok {
		return apperrors.NotFound("workflow", id)
	}
	delete(m.workflows, id)
	delete(m.versions, id)
	for eid, e := range m.executions {
		if e.WorkflowID == id {
			delete(m.executions, eid)
		}
	}
	return nil
}

func (m *Memory) Versions(_ context.Context, id string) ([]Version, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.workflows[id]; !ok {
		return nil, apperrors.NotFound("workflow", id)
	}
	history := m.versions[id]
	out := make([]Version, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		out = append(out, history[i])
	}
	return out, nil
}

func (m *Memory) Version(_ context.Context, id string, version int) (*Version, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, v := range m.versions[id] {
		if v.Version == version {
			out := v
			return &out, nil
		}
	}
	return nil, apperrors.NotFound("workflow version", id)
}

func (m *Memory) StartExecution(_ context.Context, workflowID string) (*Execution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := &Execution{ID: uuid.NewString(), WorkflowID: workflowID, Status: ExecutionPending, CreatedAt: m.now().UTC()}
	m.executions[e.ID] = e
	out := *e
	return &out, nil
}

func (m *Memory) MarkRunning(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.executions[id]
	if !ok {
		return apperrors.NotFound("execution", id)
	}
	now := m.now().UTC()
	e.Status = ExecutionRunning
	e.StartedAt = &now
	return nil
}

func (m *Memory) FinishExecution(_ context.Context, id string, out Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.executions[id]
	if !ok {
		return apperrors.NotFound("execution", id)
	}
	now := m.now().UTC()
	e.Status = outcomeStatus(out)
	e.CompletedAt = &now
	e.Results = out.Results
	e.Errors = out.Errors
	e.Error = firstError(out.Errors)
	return nil
}

func (m *Memory) Execution(_ context.Context, id string) (*Execution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.executions[id]
	if !ok {
		return nil, apperrors.NotFound("execution", id)
	}
	out := *e
	return &out, nil
}

func (m *Memory) Executions(_ context.Context, workflowID string) ([]Execution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Execution
	for _, e := range m.executions {
		if e.WorkflowID == workflowID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func snapshot(w *Workflow, at time.Time) Version {
	return Version{
		WorkflowID: w.ID,
		Version:    w.Version,
		Title:      w.Title,
		Nodes:      w.Nodes,
		Edges:      w.Edges,
		CreatedAt:  at,
	}
}

func latest(history []Version) int {
	n := 0
	for _, v := range history {
		if v.Version > n {
			n = v.Version
		}
	}
	return n
}
