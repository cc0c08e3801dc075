// Package logger provides structured logging built on zerolog.
//
// A Logger writes to one main output (stdout, stderr or a file) in JSON or
// console format. An optional error output receives a second copy of every
// event at error level or above, which keeps a compact failure log next to
// the full debug log.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "console"
//	  output: "debug.log"
//	  error_output: "except.log"
//
// # Usage
//
//	log, err := logger.New(&cfg.Logging, "collectpreviews")
//	if err != nil {
//	    return err
//	}
//	defer log.Close()
//	log.WithComponent("producer").Info("fetched", logger.Fields("index", 3))
package logger
