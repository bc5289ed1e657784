// Package otelobs provides OpenTelemetry adapters for the workload
// observability interfaces, for users who want plug-and-play
// observability without implementing the interfaces themselves.
package otelobs

import (
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"

	"github.com/lobsterload/lobsterload/workload"
)

// SlogBridgeLogger implements workload.Logger using the OpenTelemetry
// slog bridge. Log records flow through the global OpenTelemetry
// LoggerProvider while keeping the standard log/slog call surface.
type SlogBridgeLogger struct {
	logger *slog.Logger
}

// NewSlogBridgeLogger creates a logger backed by the OpenTelemetry slog
// bridge, using the global OpenTelemetry LoggerProvider.
func NewSlogBridgeLogger(name string) *SlogBridgeLogger {
	return &SlogBridgeLogger{logger: otelslog.NewLogger(name)}
}

// NewSlogLoggerWithHandler creates a logger over the provided
// slog.Handler as-is, without OpenTelemetry integration. Use it to
// direct workload logging at a plain text or JSON handler.
func NewSlogLoggerWithHandler(handler slog.Handler) *SlogBridgeLogger {
	return &SlogBridgeLogger{logger: slog.New(handler)}
}

// Debug logs a debug message.
func (l *SlogBridgeLogger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

// Info logs an info message.
func (l *SlogBridgeLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, args...)
}

// Warn logs a warning message.
func (l *SlogBridgeLogger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

// Error logs an error message.
func (l *SlogBridgeLogger) Error(msg string, args ...any) {
	l.logger.Error(msg, args...)
}

// Ensure SlogBridgeLogger implements workload.Logger.
var _ workload.Logger = (*SlogBridgeLogger)(nil)
