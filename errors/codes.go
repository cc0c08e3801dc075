package errors

import "net/http"

// ErrorCode is the machine-readable kind of an AppError.
type ErrorCode string

// Per-item failures. The worker that hits one records it and moves on.
const (
	ErrCodeFetchFailed     ErrorCode = "FETCH_FAILED"
	ErrCodeTransformFailed ErrorCode = "TRANSFORM_FAILED"
	ErrCodePersistFailed   ErrorCode = "PERSIST_FAILED"
)

// Run-level failures.
const (
	ErrCodeSetupFailed  ErrorCode = "SETUP_FAILED"
	ErrCodeCoordination ErrorCode = "COORDINATION"
	ErrCodeCanceled     ErrorCode = "CANCELED"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// Transport failures reported by the download client.
const (
	ErrCodeConnectionFailed   ErrorCode = "CONNECTION_FAILED"
	ErrCodeTimeout            ErrorCode = "TIMEOUT"
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeRateLimited        ErrorCode = "RATE_LIMITED"
)

// Caller mistakes.
const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
)

type class struct {
	status    int
	retryable bool
	item      bool
}

var classes = map[ErrorCode]class{
	ErrCodeFetchFailed:     {status: http.StatusBadGateway, item: true},
	ErrCodeTransformFailed: {status: http.StatusUnprocessableEntity, item: true},
	ErrCodePersistFailed:   {status: http.StatusInternalServerError, item: true},

	ErrCodeSetupFailed:  {status: http.StatusInternalServerError},
	ErrCodeCoordination: {status: http.StatusInternalServerError},
	ErrCodeCanceled:     {status: http.StatusServiceUnavailable},
	ErrCodeInternal:     {status: http.StatusInternalServerError},

	ErrCodeConnectionFailed:   {status: http.StatusServiceUnavailable, retryable: true},
	ErrCodeTimeout:            {status: http.StatusGatewayTimeout, retryable: true},
	ErrCodeServiceUnavailable: {status: http.StatusServiceUnavailable, retryable: true},
	ErrCodeRateLimited:        {status: http.StatusTooManyRequests, retryable: true},

	ErrCodeInvalidInput: {status: http.StatusBadRequest},
	ErrCodeNotFound:     {status: http.StatusNotFound},
}

// IsRetryableCode reports whether a failure with code may succeed on retry.
func IsRetryableCode(code ErrorCode) bool {
	return classes[code].retryable
}

// IsItemCode reports whether code belongs to a per-item failure.
func IsItemCode(code ErrorCode) bool {
	return classes[code].item
}

// StatusOf returns the HTTP status served for code. Unknown codes map to 500.
func StatusOf(code ErrorCode) int {
	if c, ok := classes[code]; ok {
		return c.status
	}
	return http.StatusInternalServerError
}
