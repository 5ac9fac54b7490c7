// Package logger provides structured logging for netkv.
//
// It wraps the standard library log/slog:
//
//   - JSON and text output formats
//   - A process-wide level that can be adjusted at runtime (the server
//     re-applies it when the configuration file changes)
//   - A default logger for code without an injected instance
package logger
