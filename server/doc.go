// Package server provides the live status HTTP server of a run.
//
// The server is backed by Gin and wrapped with h2c so that plain-text
// HTTP/2 clients can poll it as well. It follows the component pattern and
// is only started when enabled.
//
// # Endpoints
//
//   - /health: component health aggregation
//   - /alive: liveness probe
//   - /ready: readiness probe
//   - /info: build information and uptime
//   - /status: live counters of the current run
package server
