package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the status code used when the error is served by the status endpoint.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates an AppError served with httpStatus. Retryable follows code.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// newf creates an AppError with the status of its code.
func newf(code ErrorCode, cause error, format string, args ...any) *AppError {
	e := New(code, fmt.Sprintf(format, args...), StatusOf(code))
	e.Cause = cause
	return e
}

func (e *AppError) withDetails(kvs ...any) *AppError {
	for i := 0; i+1 < len(kvs); i += 2 {
		e.WithDetail(kvs[i].(string), kvs[i+1])
	}
	return e
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the code of the first AppError in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// IsRetryable reports whether err is an AppError marked retryable.
func IsRetryable(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Retryable
}

// FetchFailed reports an input that could not be downloaded. It is
// retryable when its cause is.
func FetchFailed(index int, source string, cause error) *AppError {
	e := newf(ErrCodeFetchFailed, cause, "Could not fetch %s.", source).
		withDetails("index", index, "source", source)
	e.Retryable = IsRetryable(cause)
	return e
}

// TransformFailed reports a downloaded payload that is not a usable image.
func TransformFailed(index int, cause error) *AppError {
	return newf(ErrCodeTransformFailed, cause, "Could not transform item %d.", index).
		withDetails("index", index)
}

// PersistFailed reports a thumbnail that could not be written under key.
func PersistFailed(index int, key string, cause error) *AppError {
	return newf(ErrCodePersistFailed, cause, "Could not save %s.", key).
		withDetails("index", index, "key", key)
}

// SetupFailed reports a run that could not be prepared.
func SetupFailed(step string, cause error) *AppError {
	return newf(ErrCodeSetupFailed, cause, "Setup failed: %s.", step).withDetails("step", step)
}

// Coordination reports a violated producer/consumer protocol.
func Coordination(reason string, cause error) *AppError {
	return newf(ErrCodeCoordination, cause, "%s", reason)
}

// Canceled reports a run stopped by its context.
func Canceled(cause error) *AppError {
	return newf(ErrCodeCanceled, cause, "The run was canceled.")
}

func ConnectionFailed(host string) *AppError {
	return newf(ErrCodeConnectionFailed, nil, "Unable to connect to %s.", host).withDetails("host", host)
}

func Timeout(operation string) *AppError {
	return newf(ErrCodeTimeout, nil, "%s timed out.", operation).withDetails("operation", operation)
}

func ServiceUnavailable(host string) *AppError {
	return newf(ErrCodeServiceUnavailable, nil, "%s is temporarily unavailable.", host).withDetails("host", host)
}

func RateLimited() *AppError {
	return newf(ErrCodeRateLimited, nil, "Too many requests.")
}

// InvalidInput reports a bad value for field. An empty field is omitted
// from the details.
func InvalidInput(field, reason string) *AppError {
	e := newf(ErrCodeInvalidInput, nil, "Invalid input: %s", reason)
	if field != "" {
		e.WithDetail("field", field)
	}
	return e
}

// Validation reports failed struct or config validation.
func Validation(message string) *AppError {
	return newf(ErrCodeInvalidInput, nil, "%s", message)
}

// NotFound reports a missing resource. An empty id is omitted.
func NotFound(resource, id string) *AppError {
	e := newf(ErrCodeNotFound, nil, "The requested %s was not found.", resource).
		withDetails("resource", resource)
	if id != "" {
		e.WithDetail("id", id)
	}
	return e
}

// Internal wraps an unexpected error.
func Internal(cause error) *AppError {
	return newf(ErrCodeInternal, cause, "An unexpected error occurred.")
}
