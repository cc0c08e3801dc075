// Package errors defines the structured error type shared by every package
// in the module.
//
// An AppError carries a machine-readable code, a short message, a retryable
// flag and optional details. The codes split into three groups:
//
//   - per-item failures (FETCH_FAILED, TRANSFORM_FAILED, PERSIST_FAILED) that
//     are counted and logged but never abort a run
//   - run-level failures (SETUP_FAILED, COORDINATION) that abort a run
//   - transport and input failures shared with the HTTP client and config
//
// Use CodeOf or IsCode to branch on an error without unwrapping by hand.
package errors
