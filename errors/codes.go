package errors

import "net/http"

// ErrorCode is the machine-readable code sent to API clients.
type ErrorCode string

const (
	// availability; all retryable
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeConnectionFailed   ErrorCode = "CONNECTION_FAILED"
	ErrCodeTimeout            ErrorCode = "TIMEOUT"
	ErrCodeRateLimited        ErrorCode = "RATE_LIMITED"

	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeConflict      ErrorCode = "CONFLICT"
	ErrCodeRunInProgress ErrorCode = "RUN_IN_PROGRESS"

	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"

	// ErrCodeCycleDetected fails the whole run before any node executes.
	ErrCodeCycleDetected    ErrorCode = "CYCLE_DETECTED"
	ErrCodeMissingInput     ErrorCode = "MISSING_INPUT"
	ErrCodeUnknownNodeType  ErrorCode = "UNKNOWN_NODE_TYPE"
	ErrCodeGenerationFailed ErrorCode = "GENERATION_FAILED"
	// ErrCodeNoOutputProduced means a capability finished without a result URL.
	ErrCodeNoOutputProduced ErrorCode = "NO_OUTPUT_PRODUCED"

	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabaseError   ErrorCode = "DATABASE_ERROR"
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

type codeInfo struct {
	status    int
	retryable bool
}

var codeTable = map[ErrorCode]codeInfo{
	ErrCodeServiceUnavailable: {http.StatusServiceUnavailable, true},
	ErrCodeConnectionFailed:   {http.StatusServiceUnavailable, true},
	ErrCodeTimeout:            {http.StatusGatewayTimeout, true},
	ErrCodeRateLimited:        {http.StatusTooManyRequests, true},
	ErrCodeNotFound:           {http.StatusNotFound, false},
	ErrCodeConflict:           {http.StatusConflict, false},
	ErrCodeRunInProgress:      {http.StatusConflict, false},
	ErrCodeInvalidInput:       {http.StatusBadRequest, false},
	ErrCodeMissingField:       {http.StatusBadRequest, false},
	ErrCodeCycleDetected:      {http.StatusUnprocessableEntity, false},
	ErrCodeMissingInput:       {http.StatusBadRequest, false},
	ErrCodeUnknownNodeType:    {http.StatusBadRequest, false},
	ErrCodeGenerationFailed:   {http.StatusBadGateway, false},
	ErrCodeNoOutputProduced:   {http.StatusBadGateway, false},
	ErrCodeInternal:           {http.StatusInternalServerError, false},
	ErrCodeDatabaseError:      {http.StatusInternalServerError, true},
	ErrCodeExternalService:    {http.StatusBadGateway, true},
}

// HTTPStatus is the default response status for c; unknown codes map to 500.
func (c ErrorCode) HTTPStatus() int {
	if info, ok := codeTable[c]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// Retryable reports whether a caller may retry an operation that failed
// with c.
func (c ErrorCode) Retryable() bool { return codeTable[c].retryable }

// IsRetryableCode is shorthand for code.Retryable().
func IsRetryableCode(code ErrorCode) bool { return code.Retryable() }
