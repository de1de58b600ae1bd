package httpclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/kbukum/canvasflow/errors"
)

// StatusError converts a non-2xx response into an AppError. The message is
// taken from the body when the upstream sent one.
func StatusError(service string, status int, body []byte) *apperrors.AppError {
	msg := upstreamMessage(body)
	if msg == "" {
		msg = fmt.Sprintf("%s returned HTTP %d", service, status)
	}

	var err *apperrors.AppError
	switch {
	case status == http.StatusTooManyRequests:
		err = apperrors.New(apperrors.ErrCodeRateLimited, msg, http.StatusTooManyRequests)
	case status >= 500:
		err = apperrors.New(apperrors.ErrCodeExternalService, msg, http.StatusBadGateway)
	default:
		err = apperrors.New(apperrors.ErrCodeInvalidInput, msg, http.StatusBadGateway)
	}
	return err.WithDetail("service", service).WithDetail("status", status)
}

// upstreamMessage pulls a human-readable error out of common error body
// shapes: {"detail": "..."}, {"detail": [{"msg": "..."}]},
// {"error": "..."}, {"error": {"message": "..."}} and {"message": "..."}.
func upstreamMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		text := strings.TrimSpace(string(body))
		if len(text) > 200 || strings.HasPrefix(text, "<") {
			return ""
		}
		return text
	}

	for _, key := range []string{"detail", "error", "message"} {
		if msg := messageOf(payload[key]); msg != "" {
			return msg
		}
	}
	return ""
}

func messageOf(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case map[string]any:
		if s, ok := val["message"].(string); ok {
			return s
		}
		if s, ok := val["msg"].(string); ok {
			return s
		}
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if msg := messageOf(item); msg != "" {
				parts = append(parts, msg)
			}
		}
		return strings.Join(parts, "; ")
	}
	return ""
}
