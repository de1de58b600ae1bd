// Package api registers the canvasflow HTTP routes on a Gin router.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/kbukum/canvasflow/artifact"
	"github.com/kbukum/canvasflow/capability"
	"github.com/kbukum/canvasflow/engine"
	"github.com/kbukum/canvasflow/logger"
	"github.com/kbukum/canvasflow/runs"
	"github.com/kbukum/canvasflow/server/middleware"
	"github.com/kbukum/canvasflow/sse"
	"github.com/kbukum/canvasflow/store"
)

// Deps are the services behind the routes. Artifacts may be nil, in which
// case the upload and artifact routes answer 503.
type Deps struct {
	Executor  *engine.Executor
	Store     store.Store
	Runs      *runs.Manager
	Hub       *sse.Hub
	Artifacts *artifact.Store
	Invoker   capability.Invoker
	Log       *logger.Logger
	// GenerateRateLimit is requests per client per minute on /api/generate.
	GenerateRateLimit int
}

// API holds the route handlers.
type API struct {
	executor  *engine.Executor
	store     store.Store
	runs      *runs.Manager
	hub       *sse.Hub
	artifacts *artifact.Store
	invoker   capability.Invoker
	log       *logger.Logger
	rateLimit int
}

// New creates the API.
func New(d Deps) *API {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	return &API{
		executor:  d.Executor,
		store:     d.Store,
		runs:      d.Runs,
		hub:       d.Hub,
		artifacts: d.Artifacts,
		invoker:   d.Invoker,
		log:       log.WithComponent("api"),
		rateLimit: d.GenerateRateLimit,
	}
}

// Register mounts every route under /api.
func (a *API) Register(r gin.IRouter) {
	g := r.Group("/api")

	g.GET("/node-types", a.nodeTypes)

	wf := g.Group("/workflows")
	wf.POST("/execute", a.execute)
	wf.POST("/plan", a.plan)
	wf.GET("", a.listWorkflows)
	wf.POST("", a.createWorkflow)
	wf.GET("/:id", a.getWorkflow)
	wf.PUT("/:id", a.updateWorkflow)
	wf.DELETE("/:id", a.deleteWorkflow)
	wf.GET("/:id/versions", a.listVersions)
	wf.GET("/:id/versions/:version", a.getVersion)
	wf.GET("/:id/executions", a.listExecutions)

	rg := g.Group("/runs")
	rg.POST("", a.startRun)
	rg.GET("/:id", a.getRun)
	rg.GET("/:id/events", a.runEvents)

	gen := g.Group("/generate", middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerMinute: a.rateLimit,
	}))
	gen.POST("/text-to-image", a.textToImage)
	gen.POST("/image-to-video", a.imageToVideo)
	gen.POST("/text-to-video", a.textToVideo)

	g.POST("/uploads", a.upload)
	g.GET("/artifacts/*path", a.artifact)
}
