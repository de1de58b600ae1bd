package sse

import (
	"context"
	"fmt"

	"github.com/kbukum/canvasflow/component"
	"github.com/kbukum/canvasflow/logger"
)

// Component owns the hub loop for the lifetime of the application.
type Component struct {
	hub     *Hub
	path    string
	stopped chan struct{}
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates the component with a fresh hub. path is only used
// for the startup summary.
func NewComponent(path string, log *logger.Logger) *Component {
	return &Component{hub: NewHub(log), path: path}
}

// Hub returns the hub that handlers register clients with.
func (c *Component) Hub() *Hub { return c.hub }

func (c *Component) Name() string { return "sse" }

func (c *Component) Start(_ context.Context) error {
	if c.stopped != nil {
		return fmt.Errorf("sse: hub already started")
	}
	c.stopped = make(chan struct{})
	go func() {
		defer close(c.stopped)
		c.hub.Run()
	}()
	return nil
}

// Stop closes every open stream and waits for the hub loop to exit or ctx
// to expire, whichever comes first.
func (c *Component) Stop(ctx context.Context) error {
	c.hub.Stop()
	if c.stopped == nil {
		return nil
	}
	select {
	case <-c.stopped:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("sse: waiting for hub shutdown: %w", ctx.Err())
	}
}

func (c *Component) Health(_ context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	select {
	case <-c.runDone():
		h.Status = component.StatusUnhealthy
		h.Message = "hub stopped"
	default:
		h.Message = fmt.Sprintf("%d clients connected", c.hub.ClientCount())
	}
	return h
}

// runDone is closed once the loop exits; before Start it never fires.
func (c *Component) runDone() <-chan struct{} {
	if c.stopped == nil {
		return nil
	}
	return c.stopped
}

func (c *Component) Describe() component.Description {
	return component.Description{Name: "SSE Hub", Type: "sse", Details: "stream: " + c.path}
}
