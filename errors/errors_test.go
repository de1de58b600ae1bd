package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeNotFound, "not found", http.StatusNotFound)
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, err.HTTPStatus)
	}
	if err.Retryable {
		t.Error("NOT_FOUND should not be retryable")
	}
}

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeTimeout, "timed out", http.StatusGatewayTimeout)
	if !err.Retryable {
		t.Error("TIMEOUT should be retryable")
	}
}

func TestAppError_New_DefaultStatus(t *testing.T) {
	if got := New(ErrCodeCycleDetected, "cycle", 0).HTTPStatus; got != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", got)
	}
	if got := ErrorCode("SOMETHING_ELSE").HTTPStatus(); got != http.StatusInternalServerError {
		t.Errorf("expected 500 for unknown code, got %d", got)
	}
	if ErrorCode("SOMETHING_ELSE").Retryable() {
		t.Error("unknown codes should not be retryable")
	}
}

func TestAppError_WithCause_Chain(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := NotFound("workflow", "1").WithCause(cause)
	if !strings.Contains(err.Error(), "root cause") {
		t.Errorf("Error() should contain cause, got %q", err.Error())
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestAppError_WithDetail_NilMap(t *testing.T) {
	err := &AppError{}
	err.WithDetail("key", "value")
	if err.Details["key"] != "value" {
		t.Errorf("expected key=value, got %v", err.Details["key"])
	}
}

func TestAppError_Is_MatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("schedule: %w", CycleDetected())
	if !stderrors.Is(wrapped, CycleDetected()) {
		t.Error("expected wrapped cycle error to match by code")
	}
	if stderrors.Is(wrapped, UnknownNodeType("x")) {
		t.Error("expected different codes not to match")
	}
}

// --- Workflow execution errors ---

func TestMessage_AppErrorAndPlain(t *testing.T) {
	if got := Message(MissingInput("prompt", "Text to Image requires a prompt input")); got != "Text to Image requires a prompt input" {
		t.Fatalf("expected bare message, got %q", got)
	}
	if got := Message(fmt.Errorf("boom")); got != "boom" {
		t.Fatalf("expected plain error text, got %q", got)
	}
	if got := Message(nil); got != "" {
		t.Fatalf("expected empty message for nil, got %q", got)
	}
}

func TestUnknownNodeType_Message(t *testing.T) {
	err := UnknownNodeType("mystery")
	if err.Message != "Unknown node type: mystery" {
		t.Fatalf("unexpected message %q", err.Message)
	}
}

func TestGenerationFailed_PreservesUpstreamMessage(t *testing.T) {
	upstream := ExternalServiceError("fal", fmt.Errorf("quota exceeded"))
	err := GenerationFailed("AI generation", upstream)
	if !strings.HasPrefix(err.Message, "AI generation failed: ") {
		t.Fatalf("expected operation prefix, got %q", err.Message)
	}
	if !strings.Contains(err.Message, "quota exceeded") {
		t.Fatalf("expected upstream text, got %q", err.Message)
	}
	if !stderrors.Is(err, upstream) {
		t.Fatal("expected cause chain to be kept")
	}
}

func TestNoOutputProduced_Message(t *testing.T) {
	if got := NoOutputProduced("image").Message; got != "No image URL in response" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestAppError_Constructors_Table(t *testing.T) {
	tests := []struct {
		name      string
		err       *AppError
		code      ErrorCode
		status    int
		retryable bool
	}{
		{"ServiceUnavailable", ServiceUnavailable("api"), ErrCodeServiceUnavailable, http.StatusServiceUnavailable, true},
		{"ConnectionFailed", ConnectionFailed("redis"), ErrCodeConnectionFailed, http.StatusServiceUnavailable, true},
		{"Timeout", Timeout("poll"), ErrCodeTimeout, http.StatusGatewayTimeout, true},
		{"RateLimited", RateLimited(), ErrCodeRateLimited, http.StatusTooManyRequests, true},
		{"Conflict", Conflict("version mismatch"), ErrCodeConflict, http.StatusConflict, false},
		{"MissingField", MissingField("name"), ErrCodeMissingField, http.StatusBadRequest, false},
		{"DatabaseError", DatabaseError(nil), ErrCodeDatabaseError, http.StatusInternalServerError, true},
		{"ExternalServiceError", ExternalServiceError("fal", nil), ErrCodeExternalService, http.StatusBadGateway, true},
		{"Validation", Validation("bad input"), ErrCodeInvalidInput, http.StatusBadRequest, false},
		{"CycleDetected", CycleDetected(), ErrCodeCycleDetected, http.StatusUnprocessableEntity, false},
		{"MissingInput", MissingInput("image", "needs image"), ErrCodeMissingInput, http.StatusBadRequest, false},
		{"NoOutputProduced", NoOutputProduced("video"), ErrCodeNoOutputProduced, http.StatusBadGateway, false},
		{"RunInProgress", RunInProgress("wf"), ErrCodeRunInProgress, http.StatusConflict, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, tc.err.Code)
			}
			if tc.err.HTTPStatus != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, tc.err.HTTPStatus)
			}
			if tc.err.Retryable != tc.retryable {
				t.Errorf("expected retryable=%v, got %v", tc.retryable, tc.err.Retryable)
			}
		})
	}
}

// --- Response mapping ---

func TestAppError_ToResponse_Success(t *testing.T) {
	resp := NotFound("workflow", "42").ToResponse()
	if resp.Error.Code != ErrCodeNotFound {
		t.Errorf("expected code NOT_FOUND in response, got %s", resp.Error.Code)
	}
	if resp.Error.Details["id"] != "42" {
		t.Error("expected id=42 in response details")
	}
}

func TestFrom_WrapsPlainError(t *testing.T) {
	plain := fmt.Errorf("something broke")
	got := From(plain)
	if got.Code != ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", got.Code)
	}
	if got.Cause != plain {
		t.Error("expected cause to be the original error")
	}
	orig := NotFound("run", "1")
	if From(fmt.Errorf("outer: %w", orig)) != orig {
		t.Error("expected wrapped AppError to be returned unchanged")
	}
}

func TestStatus_Mapping(t *testing.T) {
	if got := Status(RunInProgress("x")); got != http.StatusConflict {
		t.Errorf("expected 409, got %d", got)
	}
	if got := Status(fmt.Errorf("plain")); got != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", got)
	}
}
