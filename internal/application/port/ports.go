// Package port contains the port interfaces (driven ports) for the application layer.
// Ports define what the application needs from the outside world; adapters
// in the infrastructure layer implement them.
package port

import (
	"context"
)

// Logger defines the interface for structured logging.
//
// Example usage:
//
//	log.Info("Layout packed", "layout_id", id, "items", n)
type Logger interface {
	// Debug logs a debug message with optional key-value pairs.
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs.
	Info(msg string, keysAndValues ...interface{})

	// Warn logs a warning message with optional key-value pairs.
	Warn(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs.
	Error(msg string, keysAndValues ...interface{})

	// With return a logger with additional context fields.
	With(keysAndValues ...interface{}) Logger

	// WithContext return a logger with context information (e.g., request ID).
	WithContext(ctx context.Context) Logger
}

// HealthChecker is implemented by adapters whose backing service can be probed.
type HealthChecker interface {
	// Ping returns an error if the backing service is unreachable.
	Ping(ctx context.Context) error
}
