package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/canvasflow/errors"
	"github.com/kbukum/canvasflow/logger"
	"github.com/kbukum/canvasflow/server"
)

const uploadField = "file"

// upload stores a multipart image and answers with its URL.
func (a *API) upload(c *gin.Context) {
	if a.artifacts == nil {
		server.RespondWithError(c, apperrors.ServiceUnavailable("artifact storage"))
		return
	}

	file, header, err := c.Request.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			server.RespondWithError(c, apperrors.New(apperrors.ErrCodeInvalidInput,
				"Request body too large", http.StatusRequestEntityTooLarge).WithDetail("field", uploadField))
			return
		}
		server.RespondWithError(c, apperrors.MissingField(uploadField))
		return
	}
	defer file.Close()

	url, err := a.artifacts.SaveUpload(c.Request.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}

// artifact serves a stored object by its storage path.
func (a *API) artifact(c *gin.Context) {
	if a.artifacts == nil {
		server.RespondWithError(c, apperrors.ServiceUnavailable("artifact storage"))
		return
	}
	name := strings.TrimPrefix(c.Param("path"), "/")
	if name == "" {
		server.RespondWithError(c, apperrors.MissingField("path"))
		return
	}

	rc, contentType, err := a.artifacts.Open(c.Request.Context(), name)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		a.log.WithContext(c.Request.Context()).Warn("artifact stream interrupted",
			logger.Fields("path", name, logger.FieldError, err.Error()))
	}
}
