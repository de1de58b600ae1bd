package runs

import (
	"context"
	"fmt"

	"github.com/kbukum/canvasflow/component"
	"github.com/kbukum/canvasflow/logger"
)

// Component ties a Manager to the application lifecycle. Stop cancels
// runs still executing and waits for them to record their outcome.
type Component struct {
	manager *Manager
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent wraps m.
func NewComponent(m *Manager) *Component { return &Component{manager: m} }

func (c *Component) Name() string { return "runs" }

func (c *Component) Start(_ context.Context) error { return nil }

func (c *Component) Stop(ctx context.Context) error {
	m := c.manager
	if n := m.Active(); n > 0 {
		m.log.Info("canceling active runs", logger.Fields("active", n))
	}
	m.cancel()
	return m.Wait(ctx)
}

func (c *Component) Health(_ context.Context) component.Health {
	b := c.manager.bulkhead
	h := component.Health{
		Name:    c.Name(),
		Status:  component.StatusHealthy,
		Message: fmt.Sprintf("%d/%d run slots in use", b.InUse(), b.MaxConcurrent()),
	}
	if b.Available() == 0 {
		h.Status = component.StatusDegraded
	}
	return h
}

func (c *Component) Describe() component.Description {
	cfg := c.manager.cfg
	return component.Description{
		Name:    "Runs",
		Type:    "executor",
		Details: fmt.Sprintf("max_concurrent=%d run_timeout=%s result_ttl=%s", cfg.MaxConcurrent, cfg.RunTimeout, cfg.ResultTTL),
	}
}
