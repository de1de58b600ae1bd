// Package errors provides the structured error type shared by every canvasflow
// package. Errors carry a machine-readable code, a human-readable message,
// an HTTP status and a retryable flag so that capability calls, the engine and
// the HTTP layer agree on how a failure is reported.
package errors
