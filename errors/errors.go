package errors

import "fmt"

// AppError is the error type every layer returns to the HTTP handlers
// and records on failed nodes.
type AppError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Retryable  bool           `json:"retryable"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Is matches by code, so errors.Is(err, CycleDetected()) works through
// any amount of wrapping.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// NotRetryable marks an error that must not be retried even though its
// code usually is.
func (e *AppError) NotRetryable() *AppError {
	e.Retryable = false
	return e
}

// New builds an AppError for code. A zero httpStatus uses the code's
// default; retryability always follows the code.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	if httpStatus == 0 {
		httpStatus = code.HTTPStatus()
	}
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus, Retryable: code.Retryable()}
}

func newf(code ErrorCode, format string, args ...any) *AppError {
	return New(code, fmt.Sprintf(format, args...), 0)
}

// Message is the user-facing text of err: Message for an AppError,
// err.Error() for anything else.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr.Message
	}
	return err.Error()
}

// --- workflow execution ---

func CycleDetected() *AppError {
	return newf(ErrCodeCycleDetected, "Workflow contains a cycle")
}

// MissingInput reports a required input port with no value; message is
// shown on the node as-is.
func MissingInput(port, message string) *AppError {
	return New(ErrCodeMissingInput, message, 0).WithDetail("port", port)
}

func UnknownNodeType(nodeType string) *AppError {
	return newf(ErrCodeUnknownNodeType, "Unknown node type: %s", nodeType).WithDetail("type", nodeType)
}

// GenerationFailed keeps the upstream message after the operation, e.g.
// "AI generation failed: quota exceeded".
func GenerationFailed(operation string, cause error) *AppError {
	return newf(ErrCodeGenerationFailed, "%s failed: %s", operation, Message(cause)).WithCause(cause)
}

func NoOutputProduced(what string) *AppError {
	return newf(ErrCodeNoOutputProduced, "No %s URL in response", what)
}

func RunInProgress(workflowID string) *AppError {
	return newf(ErrCodeRunInProgress, "A run is already in progress for this workflow").
		WithDetail("workflow_id", workflowID)
}

// --- availability ---

func ServiceUnavailable(service string) *AppError {
	return newf(ErrCodeServiceUnavailable, "The %s is temporarily unavailable. Please try again.", service).
		WithDetail("service", service)
}

func ConnectionFailed(service string) *AppError {
	return newf(ErrCodeConnectionFailed, "Unable to connect to %s.", service).WithDetail("service", service)
}

func Timeout(operation string) *AppError {
	return newf(ErrCodeTimeout, "%s timed out", operation).WithDetail("operation", operation)
}

func RateLimited() *AppError {
	return newf(ErrCodeRateLimited, "Too many requests. Please wait a moment and try again.")
}

// --- requests and resources ---

// NotFound omits the id detail when id is empty.
func NotFound(resource, id string) *AppError {
	err := newf(ErrCodeNotFound, "The requested %s was not found.", resource).WithDetail("resource", resource)
	if id != "" {
		err.WithDetail("id", id)
	}
	return err
}

func Conflict(reason string) *AppError {
	return New(ErrCodeConflict, reason, 0)
}

func InvalidInput(field, reason string) *AppError {
	err := newf(ErrCodeInvalidInput, "Invalid input: %s", reason)
	if field != "" {
		err.WithDetail("field", field)
	}
	return err
}

// Validation carries an already formatted message, usually joined field
// errors from the validation package.
func Validation(message string) *AppError {
	return New(ErrCodeInvalidInput, message, 0)
}

func MissingField(field string) *AppError {
	return newf(ErrCodeMissingField, "Missing required field: %s", field).WithDetail("field", field)
}

// --- internal ---

func Internal(cause error) *AppError {
	return newf(ErrCodeInternal, "An unexpected error occurred.").WithCause(cause)
}

func DatabaseError(cause error) *AppError {
	return newf(ErrCodeDatabaseError, "A database error occurred. Please try again.").WithCause(cause)
}

// ExternalServiceError appends the cause's message so capability
// failures stay readable on the node.
func ExternalServiceError(service string, cause error) *AppError {
	msg := fmt.Sprintf("The %s service encountered an error", service)
	if cause != nil {
		msg += ": " + Message(cause)
	}
	return New(ErrCodeExternalService, msg, 0).WithDetail("service", service).WithCause(cause)
}
