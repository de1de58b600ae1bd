package kafka

import (
	"net/http"

	apperrors "github.com/kbukum/canvasflow/errors"
)

// FromKafka converts a publish error to an AppError.
func FromKafka(err error, topic string) *apperrors.AppError {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	switch classify(err) {
	case classConnection:
		appErr = apperrors.New(apperrors.ErrCodeServiceUnavailable,
			"Event broker is temporarily unavailable.", http.StatusServiceUnavailable)
	case classRejected:
		appErr = apperrors.New(apperrors.ErrCodeInvalidInput,
			"Event was rejected by the broker.", http.StatusBadRequest)
	case classTransient:
		appErr = apperrors.New(apperrors.ErrCodeExternalService,
			"Temporary event broker error. Please try again.", http.StatusServiceUnavailable)
	default:
		return apperrors.Internal(err)
	}
	return appErr.WithCause(err).WithDetail("topic", topic)
}
