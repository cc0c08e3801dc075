// Package bootstrap runs an application task with a uniform lifecycle.
//
// NewApp applies config defaults, validates the config and builds the
// logger. RunTask then starts the registered components in order, runs the
// start hooks and configure callbacks, executes the task with a context that
// SIGINT and SIGTERM cancel, and finally stops the components in reverse
// order within the graceful timeout.
package bootstrap
