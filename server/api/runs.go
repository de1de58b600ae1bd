package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/kbukum/canvasflow/errors"
	"github.com/kbukum/canvasflow/logger"
	"github.com/kbukum/canvasflow/runs"
	"github.com/kbukum/canvasflow/server"
	"github.com/kbukum/canvasflow/sse"
)

// startRun queues the graph. A saved workflow can be run by id alone, in
// which case its stored nodes and edges are used.
func (a *API) startRun(c *gin.Context) {
	req, ok := bindGraph(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if req.WorkflowID != "" && len(req.Nodes) == 0 {
		wf, err := a.store.Get(ctx, req.WorkflowID)
		if err != nil {
			server.RespondWithError(c, err)
			return
		}
		req.Nodes, req.Edges = wf.Nodes, wf.Edges
	}

	run, err := a.runs.Start(ctx, req.WorkflowID, req.Nodes, req.Edges)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"runId": run.ID, "status": run.Status})
}

func (a *API) getRun(c *gin.Context) {
	run, err := a.runs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

// runEvents streams node updates until run.finished. Clients that connect
// late get the updates so far, or the final event if the run is over.
func (a *API) runEvents(c *gin.Context) {
	ctx := c.Request.Context()
	runID := c.Param("id")
	if _, err := a.runs.Get(ctx, runID); err != nil {
		server.RespondWithError(c, err)
		return
	}
	if a.hub == nil {
		server.RespondWithError(c, apperrors.ServiceUnavailable("event stream"))
		return
	}

	log := a.log.WithContext(ctx)
	sse.Serve(a.hub, c.Writer, c.Request, runs.ClientID(runID, uuid.NewString()), sse.StreamOptions{
		Terminal: sse.EventRunFinished,
		OnRegistered: func(client *sse.Client) {
			run, err := a.runs.Get(ctx, runID)
			if err != nil {
				log.Warn("run catch-up failed", logger.Fields(logger.FieldRunID, runID, logger.FieldError, err.Error()))
				return
			}
			if run.Done() {
				if ev, err := runs.FinishedEvent(run); err == nil {
					client.Send(ev)
				}
				return
			}
			for _, u := range run.Updates {
				if ev, err := sse.NewEvent(sse.EventNodeUpdate, u); err == nil {
					client.Send(ev)
				}
			}
		},
	})
}
