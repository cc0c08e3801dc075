// Package resilience provides the fault-tolerance primitives used when
// fetching from many remote hosts at once.
//
//   - Retry: retries transient failures with exponential backoff and jitter
//   - CircuitBreaker: fails fast once a host keeps failing
//   - RateLimiter: token bucket that paces outgoing requests
//   - Bulkhead: caps concurrent calls into one host
//
// Breakers and bulkheads are usually kept per host through Group:
//
//	breakers := resilience.NewGroup(func(host string) *resilience.CircuitBreaker {
//	    return resilience.NewCircuitBreaker(cfg.Breaker.Named(host))
//	})
//	err := breakers.Get(host).Execute(func() error {
//	    return limiter.ExecuteWait(ctx, func() error { return do(ctx) })
//	})
package resilience
