package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/canvasflow/capability"
	apperrors "github.com/kbukum/canvasflow/errors"
	"github.com/kbukum/canvasflow/logger"
)

// The /api/generate routes answer with a flat {"error": message} body
// that browser clients read directly.

type textToImageRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Steps  int    `json:"steps"`
}

type videoRequest struct {
	Prompt      string `json:"prompt"`
	ImageURL    string `json:"imageUrl"`
	Model       string `json:"model"`
	Duration    any    `json:"duration"`
	AspectRatio string `json:"aspectRatio"`
}

func generateError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func (a *API) textToImage(c *gin.Context) {
	var req textToImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		generateError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		generateError(c, http.StatusBadRequest, "Prompt is required")
		return
	}

	url, ok := a.generate(c, "text-to-image", capability.ImageRequest(capability.ImageParams{
		Model:  orDefault(req.Model, capability.DefaultImageModel),
		Prompt: req.Prompt,
		Width:  positive(req.Width, 1024),
		Height: positive(req.Height, 1024),
		Steps:  positive(req.Steps, 30),
	}), "No image URL in response")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "imageUrl": url})
}

func (a *API) imageToVideo(c *gin.Context) {
	var req videoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		generateError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.ImageURL) == "" {
		generateError(c, http.StatusBadRequest, "Image URL is required")
		return
	}
	a.video(c, req, "5s")
}

func (a *API) textToVideo(c *gin.Context) {
	var req videoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		generateError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		generateError(c, http.StatusBadRequest, "Prompt is required")
		return
	}
	req.ImageURL = ""
	a.video(c, req, "5")
}

func (a *API) video(c *gin.Context, req videoRequest, defaultDuration string) {
	op := "text-to-video"
	if req.ImageURL != "" {
		op = "image-to-video"
	}
	url, ok := a.generate(c, op, capability.VideoRequest(capability.VideoParams{
		Model:       orDefault(req.Model, capability.VideoModelMinimax),
		Prompt:      req.Prompt,
		ImageURL:    req.ImageURL,
		Duration:    durationString(req.Duration, defaultDuration),
		AspectRatio: orDefault(req.AspectRatio, "auto"),
	}), "No video URL in response")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "videoUrl": url})
}

// generate invokes the capability and extracts the primary URL. It writes
// the error response itself and reports whether the caller should go on.
func (a *API) generate(c *gin.Context, op string, req capability.Request, missing string) (string, bool) {
	ctx := c.Request.Context()
	log := a.log.WithContext(ctx).WithFields(logger.Fields("operation", op, "capability", req.ID))

	out, err := a.invoke(ctx, req)
	if err != nil {
		log.Error("generation failed", logger.Fields(logger.FieldError, err.Error()))
		generateError(c, http.StatusInternalServerError, apperrors.Message(err))
		return "", false
	}
	if out == nil || out.PrimaryResultURL == "" {
		log.Error("generation returned no url")
		generateError(c, http.StatusInternalServerError, missing)
		return "", false
	}
	log.Info("generation complete")
	return out.PrimaryResultURL, true
}

func (a *API) invoke(ctx context.Context, req capability.Request) (*capability.Output, error) {
	if a.invoker == nil {
		return nil, apperrors.ServiceUnavailable("generation")
	}
	return a.invoker.Invoke(ctx, req)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func positive(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}

// durationString accepts "5s", "5" or 5.
func durationString(v any, def string) string {
	switch d := v.(type) {
	case string:
		return orDefault(d, def)
	case float64:
		return fmt.Sprintf("%d", int(d))
	default:
		return def
	}
}
