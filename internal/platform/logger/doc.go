// Package logger provides structured logging functionality for the application.
//
// It utilizes Go's standard library log/slog package to implement structured JSON logging
// with configurable log levels. Request-scoped attributes such as the trace ID are
// carried on the context and added to every record logged with a *Context method.
package logger
