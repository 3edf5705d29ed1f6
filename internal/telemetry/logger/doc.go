// Package logger provides structured logging for the record store.
//
// It wraps log/slog with text and JSON handlers. Each logger carries its
// own level. redact.go hides secret-like keys and clips long string
// values, so a large attribute logged at debug level cannot flood the
// log.
package logger
