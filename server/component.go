package server

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/kbukum/canvasflow/component"
)

const componentName = "http-server"

var (
	_ component.Component     = (*Component)(nil)
	_ component.Describable   = (*Component)(nil)
	_ component.RouteProvider = (*Component)(nil)
)

// probePaths are listed after the API routes in the startup summary.
var probePaths = map[string]bool{
	"/health":    true,
	"/readiness": true,
	"/alive":     true,
	"/version":   true,
}

// Component registers the server with the component registry.
type Component struct {
	server  *Server
	started bool
}

// NewComponent wraps s.
func NewComponent(s *Server) *Component {
	return &Component{server: s}
}

func (c *Component) Name() string { return componentName }

func (c *Component) Start(ctx context.Context) error {
	if err := c.server.Start(ctx); err != nil {
		return err
	}
	c.started = true
	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	if !c.started {
		return nil
	}
	c.started = false
	return c.server.Stop(ctx)
}

func (c *Component) Health(_ context.Context) component.Health {
	if !c.started {
		return component.Health{
			Name:    componentName,
			Status:  component.StatusUnhealthy,
			Message: "HTTP server not listening",
		}
	}
	return component.Health{Name: componentName, Status: component.StatusHealthy}
}

func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: c.server.Addr(),
		Port:    c.server.config.Port,
	}
}

// Routes lists the Gin routes: API routes by path, then the probes.
func (c *Component) Routes() []component.Route {
	ginRoutes := c.server.engine.Routes()
	sort.SliceStable(ginRoutes, func(i, j int) bool {
		a, b := ginRoutes[i], ginRoutes[j]
		if probePaths[a.Path] != probePaths[b.Path] {
			return !probePaths[a.Path]
		}
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return methodOrder(a.Method) < methodOrder(b.Method)
	})

	routes := make([]component.Route, 0, len(ginRoutes))
	for _, r := range ginRoutes {
		routes = append(routes, component.Route{
			Method:  r.Method,
			Path:    r.Path,
			Handler: handlerName(r.Handler),
		})
	}
	return routes
}

func methodOrder(m string) int {
	switch m {
	case "GET":
		return 0
	case "POST":
		return 1
	case "PUT":
		return 2
	case "PATCH":
		return 3
	case "DELETE":
		return 4
	default:
		return 5
	}
}

// handlerName trims a Gin handler name such as
// "github.com/kbukum/canvasflow/server/api.(*API).getRun-fm" to "api.getRun".
func handlerName(full string) string {
	name := strings.TrimSuffix(path.Base(full), "-fm")
	pkg, fn, ok := strings.Cut(name, ".")
	if !ok {
		return name
	}
	if i := strings.LastIndex(fn, "."); i >= 0 {
		fn = fn[i+1:]
	}
	if fn == "" {
		return fmt.Sprintf("%s.<anon>", pkg)
	}
	return pkg + "." + fn
}
