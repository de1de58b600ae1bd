package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/canvasflow/errors"
)

// DataResponse wraps workflow CRUD payloads. Execution, plan and run
// endpoints answer with flat bodies instead.
type DataResponse struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

type Meta struct {
	Total int `json:"total"`
}

// RespondWithError aborts the request with err's status and an error
// body. Non-AppErrors become a 500 INTERNAL_ERROR.
func RespondWithError(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	c.AbortWithStatusJSON(apperrors.Status(appErr), appErr.ToResponse())
}

func RespondOK(c *gin.Context, data any) { envelope(c, http.StatusOK, data, nil) }

func RespondCreated(c *gin.Context, data any) { envelope(c, http.StatusCreated, data, nil) }

// RespondList never sends a null list.
func RespondList[T any](c *gin.Context, items []T) {
	if items == nil {
		items = []T{}
	}
	envelope(c, http.StatusOK, items, &Meta{Total: len(items)})
}

func RespondNoContent(c *gin.Context) { c.Status(http.StatusNoContent) }

func envelope(c *gin.Context, status int, data any, meta *Meta) {
	c.JSON(status, DataResponse{Data: data, Meta: meta})
}
