package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/canvasflow/errors"
	"github.com/kbukum/canvasflow/logger"
	"github.com/kbukum/canvasflow/server"
	"github.com/kbukum/canvasflow/workflow"
)

// graphRequest is the body of execute, plan and run requests.
type graphRequest struct {
	WorkflowID string          `json:"workflowId"`
	Nodes      []workflow.Node `json:"nodes"`
	Edges      []workflow.Edge `json:"edges"`
}

func bindGraph(c *gin.Context) (*graphRequest, bool) {
	var req graphRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
		return nil, false
	}
	return &req, true
}

// execute runs the graph synchronously. Node failures are part of the
// result, so the status is 200 either way.
func (a *API) execute(c *gin.Context) {
	req, ok := bindGraph(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	log := a.log.WithContext(ctx)

	for _, w := range workflow.Warnings(req.Nodes, req.Edges) {
		log.Warn("workflow warning", logger.Fields("warning", w))
	}

	res := a.executor.Execute(ctx, req.Nodes, req.Edges, func(u workflow.NodeUpdate) {
		log.Debug("node update", logger.Fields("node_id", u.NodeID, logger.FieldStatus, string(u.Status)))
	})
	c.JSON(http.StatusOK, res)
}

func (a *API) plan(c *gin.Context) {
	req, ok := bindGraph(c)
	if !ok {
		return
	}
	p, err := a.executor.Plan(req.Nodes, req.Edges)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order":    p.Order,
		"levels":   p.Levels,
		"inputs":   p.Inputs,
		"warnings": workflow.Warnings(req.Nodes, req.Edges),
	})
}

func (a *API) nodeTypes(c *gin.Context) {
	server.RespondList(c, workflow.Templates())
}

func bindDocument(c *gin.Context) (*workflow.Document, bool) {
	var doc workflow.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
		return nil, false
	}
	if err := doc.Validate(); err != nil {
		server.RespondWithError(c, err)
		return nil, false
	}
	return &doc, true
}

func (a *API) listWorkflows(c *gin.Context) {
	list, err := a.store.List(c.Request.Context())
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondList(c, list)
}

func (a *API) createWorkflow(c *gin.Context) {
	doc, ok := bindDocument(c)
	if !ok {
		return
	}
	wf, err := a.store.Create(c.Request.Context(), *doc)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	a.log.WithContext(c.Request.Context()).Info("workflow created", logger.Fields(logger.FieldWorkflowID, wf.ID))
	server.RespondCreated(c, wf)
}

func (a *API) getWorkflow(c *gin.Context) {
	wf, err := a.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, wf)
}

func (a *API) updateWorkflow(c *gin.Context) {
	doc, ok := bindDocument(c)
	if !ok {
		return
	}
	wf, err := a.store.Update(c.Request.Context(), c.Param("id"), *doc)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, wf)
}

func (a *API) deleteWorkflow(c *gin.Context) {
	if err := a.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondNoContent(c)
}

func (a *API) listVersions(c *gin.Context) {
	versions, err := a.store.Versions(c.Request.Context(), c.Param("id"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondList(c, versions)
}

func (a *API) getVersion(c *gin.Context) {
	n, err := strconv.Atoi(c.Param("version"))
	if err != nil || n < 1 {
		server.RespondWithError(c, apperrors.InvalidInput("version", "must be a positive integer"))
		return
	}
	v, err := a.store.Version(c.Request.Context(), c.Param("id"), n)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, v)
}

func (a *API) listExecutions(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := a.store.Get(ctx, c.Param("id")); err != nil {
		server.RespondWithError(c, err)
		return
	}
	list, err := a.store.Executions(ctx, c.Param("id"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondList(c, list)
}
