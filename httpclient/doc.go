// Package httpclient fetches remote resources over HTTP with retry, a
// per-host circuit breaker, a per-host concurrency cap and a shared rate
// limit.
//
// Failures come back as *errors.AppError values whose codes tell the
// caller whether another attempt could help:
//
//	CONNECTION_FAILED, TIMEOUT, SERVICE_UNAVAILABLE, RATE_LIMITED  retryable
//	NOT_FOUND, INVALID_INPUT                                        final
//
// # Usage
//
//	client, err := httpclient.New(httpclient.Config{Timeout: 10 * time.Second})
//	resp, err := client.Get(ctx, "https://example.com/a.jpg")
package httpclient
