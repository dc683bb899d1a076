// Package logging provides structured logging for formstate.
//
// This package wraps a zap logger with package-level helpers. Library code
// (controllers, the event bus, the bridge) logs through it so a host program
// decides verbosity once at startup.
//
// # Log Levels
//
//   - Debug: per-event and per-mutation detail (field events, revalidation)
//   - Info: lifecycle (controller created/closed, bridge connections)
//   - Warn: recoverable problems (malformed client messages)
//   - Error: failures that abort an operation
//
// # Structured Logging
//
//	logging.Info("Form loaded",
//	    zap.String("form", def.Name),
//	    zap.Int("fields", len(def.Fields)),
//	)
//
// Domain helpers keep field names consistent:
//
//	logging.LogMutation(form, "set_value", "address.city", step)
//	logging.LogFieldEvent("focusout", "name", "input", subscribers)
//	logging.LogConnection(remoteAddr, "websocket_upgraded")
//
// # Configuration
//
// Logging is silent until initialized:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// With an empty level, FORMSTATE_LOG_LEVEL is consulted. Output goes to
// stderr in console format so it does not interleave with terminal UI output
// on stdout.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. Initialize and SetLogger
// should be called before other goroutines start logging.
package logging
