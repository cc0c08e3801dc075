package httpclient

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"

	"github.com/kbukum/previewkit/errors"
)

// ClassifyStatusCode maps a non-2xx status to an AppError. It returns nil
// for success codes.
func ClassifyStatusCode(statusCode int, host, rawURL string) *errors.AppError {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == http.StatusNotFound || statusCode == http.StatusGone:
		return errors.NotFound("resource", rawURL).WithDetail("status", statusCode)
	case statusCode == http.StatusTooManyRequests:
		return errors.RateLimited().WithDetail("host", host)
	case statusCode == http.StatusRequestTimeout:
		return errors.Timeout("GET "+host).WithDetail("status", statusCode)
	case statusCode >= 500:
		return errors.ServiceUnavailable(host).WithDetail("status", statusCode)
	default:
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("Request to %s was rejected with HTTP %d.", host, statusCode), statusCode).
			WithDetail("status", statusCode)
	}
}

// classifyTransportError maps an error from the round trip or body read.
func classifyTransportError(ctx context.Context, err error, host string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if stderrors.Is(ctxErr, context.DeadlineExceeded) {
			return errors.Timeout("GET " + host).WithCause(err)
		}
		return errors.Canceled(err)
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return errors.Timeout("GET " + host).WithCause(err)
	}
	return errors.ConnectionFailed(host).WithCause(err)
}

// StatusCode returns the HTTP status recorded on err, or 0.
func StatusCode(err error) int {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		return 0
	}
	if status, ok := appErr.Details["status"].(int); ok {
		return status
	}
	return 0
}
