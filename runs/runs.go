// Package runs executes workflows in the background. A Manager gives
// each workflow at most one active run, bounds how many runs execute at
// once, streams node updates to SSE clients and the event sink while a
// run executes, and keeps finished runs in a result cache backed by the
// execution store.
package runs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kbukum/canvasflow/engine"
	apperrors "github.com/kbukum/canvasflow/errors"
	"github.com/kbukum/canvasflow/kafka"
	"github.com/kbukum/canvasflow/logger"
	"github.com/kbukum/canvasflow/provider"
	"github.com/kbukum/canvasflow/resilience"
	"github.com/kbukum/canvasflow/sse"
	"github.com/kbukum/canvasflow/store"
	"github.com/kbukum/canvasflow/workflow"
)

// Run is the state of one asynchronous execution.
type Run struct {
	ID         string                `json:"runId"`
	WorkflowID string                `json:"workflowId,omitempty"`
	Status     store.ExecutionStatus `json:"status"`
	// Updates holds the node updates so far while the run is active.
	Updates     []workflow.NodeUpdate   `json:"updates,omitempty"`
	Result      *engine.ExecutionResult `json:"result,omitempty"`
	CreatedAt   time.Time               `json:"createdAt"`
	StartedAt   *time.Time              `json:"startedAt,omitempty"`
	CompletedAt *time.Time              `json:"completedAt,omitempty"`
}

// Done reports whether the run reached a final status.
func (r *Run) Done() bool {
	return r.Status == store.ExecutionComplete || r.Status == store.ExecutionFailed
}

// Executor runs a workflow graph.
type Executor interface {
	Execute(ctx context.Context, ns []workflow.Node, es []workflow.Edge, onUpdate workflow.UpdateFunc) engine.ExecutionResult
}

const (
	msgQueueFull = "Too many workflows are running, try again later"
	storeTimeout = 10 * time.Second
)

// Manager starts and tracks runs.
type Manager struct {
	cfg      Config
	executor Executor
	store    store.Store
	locker   Locker
	cache    ResultCache
	bulkhead *resilience.Bulkhead
	events   *publisher
	log      *logger.Logger

	mu     sync.RWMutex
	active map[string]*Run
	wg     sync.WaitGroup
	base   context.Context
	cancel context.CancelFunc
}

// Option configures a Manager.
type Option func(*Manager)

// WithLocker replaces the in-process run lock.
func WithLocker(l Locker) Option {
	return func(m *Manager) { m.locker = l }
}

// WithCache replaces the in-process result cache.
func WithCache(c ResultCache) Option {
	return func(m *Manager) { m.cache = c }
}

// WithBroadcaster streams node updates to SSE clients.
func WithBroadcaster(b sse.Broadcaster) Option {
	return func(m *Manager) { m.events.hub = b }
}

// WithSink publishes run lifecycle events. The sink is guarded by a
// circuit breaker so an unreachable broker is skipped quickly.
func WithSink(s provider.Sink[kafka.Event]) Option {
	return func(m *Manager) {
		if s == nil {
			return
		}
		cb := resilience.DefaultCircuitBreakerConfig(s.Name())
		m.events.sink = provider.WithSinkResilience(s, resilience.Config{CircuitBreaker: &cb})
	}
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// NewManager creates a Manager that records executions in st.
func NewManager(cfg Config, executor Executor, st store.Store, opts ...Option) *Manager {
	cfg.ApplyDefaults()
	base, cancel := context.WithCancel(context.Background())
	m := &Manager{
		cfg:      cfg,
		executor: executor,
		store:    st,
		locker:   NewMemoryLocker(),
		cache:    NewMemoryCache(),
		events:   &publisher{},
		log:      logger.Nop(),
		active:   make(map[string]*Run),
		base:     base,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.WithComponent("runs")
	m.events.log = m.log
	m.bulkhead = resilience.NewBulkhead(resilience.BulkheadConfig{
		Name:          "runs",
		MaxConcurrent: cfg.MaxConcurrent,
		MaxWait:       parseDuration(cfg.QueueTimeout),
	})
	return m
}

// Start records a pending run of the graph and executes it in the
// background. workflowID may be empty for unsaved graphs; otherwise a
// second run of the same workflow fails with RUN_IN_PROGRESS until the
// first finishes.
func (m *Manager) Start(ctx context.Context, workflowID string, nodes []workflow.Node, edges []workflow.Edge) (*Run, error) {
	if m.base.Err() != nil {
		return nil, apperrors.ServiceUnavailable("runs")
	}

	var lock Unlocker
	if workflowID != "" {
		lk, err := m.locker.TryLock(ctx, workflowID, parseDuration(m.cfg.LockTTL))
		if err != nil {
			return nil, apperrors.ServiceUnavailable("run lock").WithCause(err)
		}
		if lk == nil {
			return nil, apperrors.RunInProgress(workflowID)
		}
		lock = lk
	}

	exec, err := m.store.StartExecution(ctx, workflowID)
	if err != nil {
		m.release(ctx, lock, workflowID)
		return nil, err
	}

	run := &Run{
		ID:         exec.ID,
		WorkflowID: workflowID,
		Status:     store.ExecutionPending,
		CreatedAt:  exec.CreatedAt,
	}
	m.mu.Lock()
	m.active[run.ID] = run
	snapshot := *run
	m.mu.Unlock()

	m.log.WithContext(ctx).Info("run accepted", logger.Fields(
		logger.FieldRunID, run.ID, logger.FieldWorkflowID, workflowID, "nodes", len(nodes)))

	m.wg.Add(1)
	go m.execute(run.ID, lock, nodes, edges)
	return &snapshot, nil
}

func (m *Manager) execute(runID string, lock Unlocker, nodes []workflow.Node, edges []workflow.Edge) {
	defer m.wg.Done()

	ctx, cancel := context.WithTimeout(m.base, parseDuration(m.cfg.RunTimeout))
	defer cancel()
	ctx = logger.ContextWithRunID(ctx, runID)
	log := m.log.WithContext(ctx)

	events := m.events.open(ctx, runID)
	workflowID := m.snapshot(runID).WorkflowID
	defer func() {
		events.close()
		m.release(ctx, lock, workflowID)
		m.mu.Lock()
		delete(m.active, runID)
		m.mu.Unlock()
	}()

	if err := m.bulkhead.Acquire(ctx); err != nil {
		msg := msgQueueFull
		if ctx.Err() != nil {
			msg = canceledMessage(ctx)
		}
		log.Warn("run not scheduled", logger.Fields(logger.FieldError, err.Error()))
		m.finish(ctx, events, runID, engine.ExecutionResult{
			Results: map[string]any{},
			Errors:  map[string]string{engine.WorkflowErrorKey: msg},
		})
		return
	}
	defer m.bulkhead.Release()

	storeCtx, storeCancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	if err := m.store.MarkRunning(storeCtx, runID); err != nil {
		log.Warn("execution not marked running", logger.Fields(logger.FieldError, apperrors.Message(err)))
	}
	storeCancel()

	now := time.Now().UTC()
	started := m.update(runID, func(r *Run) {
		r.Status = store.ExecutionRunning
		r.StartedAt = &now
	})
	events.started(started)

	res := m.executor.Execute(ctx, nodes, edges, func(u workflow.NodeUpdate) {
		m.update(runID, func(r *Run) { r.Updates = append(r.Updates, u) })
		events.nodeUpdated(u)
	})
	m.finish(ctx, events, runID, res)
}

func (m *Manager) finish(ctx context.Context, events *stream, runID string, res engine.ExecutionResult) {
	now := time.Now().UTC()
	run := m.update(runID, func(r *Run) {
		r.Status = store.ExecutionFailed
		if res.Success {
			r.Status = store.ExecutionComplete
		}
		r.Result = &res
		r.CompletedAt = &now
	})
	run.Updates = nil

	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()
	log := m.log.WithContext(ctx)
	if err := m.store.FinishExecution(storeCtx, runID, store.Outcome{
		Success: res.Success, Results: res.Results, Errors: res.Errors,
	}); err != nil {
		log.Error("execution record not finished", logger.Fields(logger.FieldError, apperrors.Message(err)))
	}
	if err := m.cache.Save(storeCtx, &run, parseDuration(m.cfg.ResultTTL)); err != nil {
		log.Warn("run result not cached", logger.Fields(logger.FieldError, err.Error()))
	}

	events.finished(run)
	log.Info("run finished", logger.Fields(
		logger.FieldWorkflowID, run.WorkflowID,
		logger.FieldStatus, string(run.Status),
		"errors", len(res.Errors),
	))
}

// update applies fn to the active run and returns a copy.
func (m *Manager) update(runID string, fn func(*Run)) Run {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.active[runID]
	if !ok {
		return Run{ID: runID}
	}
	fn(r)
	return copyRun(r)
}

func (m *Manager) snapshot(runID string) Run {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.active[runID]; ok {
		return copyRun(r)
	}
	return Run{ID: runID}
}

func copyRun(r *Run) Run {
	c := *r
	c.Updates = append([]workflow.NodeUpdate(nil), r.Updates...)
	return c
}

func (m *Manager) release(ctx context.Context, lock Unlocker, workflowID string) {
	if lock == nil {
		return
	}
	relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()
	if err := lock.Release(relCtx); err != nil {
		m.log.Warn("run lock not released", logger.Fields(logger.FieldWorkflowID, workflowID, logger.FieldError, err.Error()))
	}
}

// Get returns the run: the live state while it is active, then the
// cached result, then the execution record.
func (m *Manager) Get(ctx context.Context, runID string) (*Run, error) {
	m.mu.RLock()
	if r, ok := m.active[runID]; ok {
		c := copyRun(r)
		m.mu.RUnlock()
		return &c, nil
	}
	m.mu.RUnlock()

	if cached, err := m.cache.Load(ctx, runID); err != nil {
		m.log.WithContext(ctx).Warn("run cache lookup failed", logger.Fields(logger.FieldRunID, runID, logger.FieldError, err.Error()))
	} else if cached != nil {
		return cached, nil
	}

	exec, err := m.store.Execution(ctx, runID)
	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code == apperrors.ErrCodeNotFound {
			return nil, apperrors.NotFound("run", runID)
		}
		return nil, err
	}
	return fromExecution(exec), nil
}

func fromExecution(e *store.Execution) *Run {
	run := &Run{
		ID:          e.ID,
		WorkflowID:  e.WorkflowID,
		Status:      e.Status,
		CreatedAt:   e.CreatedAt,
		StartedAt:   e.StartedAt,
		CompletedAt: e.CompletedAt,
	}
	if run.Done() {
		run.Result = &engine.ExecutionResult{
			Success: e.Status == store.ExecutionComplete,
			Results: e.Results,
			Errors:  e.Errors,
		}
		if run.Result.Results == nil {
			run.Result.Results = map[string]any{}
		}
		if run.Result.Errors == nil {
			run.Result.Errors = map[string]string{}
		}
	}
	return run
}

// Active returns the number of runs not yet finished.
func (m *Manager) Active() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.active)
}

// Wait blocks until every started run has finished or ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func canceledMessage(ctx context.Context) string {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "Workflow execution timed out"
	}
	return "Workflow execution canceled"
}
