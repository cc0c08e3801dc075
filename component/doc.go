// Package component defines the lifecycle contract shared by the
// long-lived pieces of an application: storage backends, the HTTP client,
// telemetry exporters and the status server.
//
// A Registry starts components in registration order, stops them in reverse
// order and aggregates their health for the status endpoint.
package component
