// Package main provides the entry point for netkv-server.
//
// The server exposes an in-memory key-value store over a
// newline-delimited TCP text protocol:
//
//   - write / update / add with optional per-entry TTL
//   - search, delete, dump, size, wipe, quit
//   - optional Prometheus /metrics endpoint
//
// Usage:
//
//	netkv-server [flags]
//	netkv-server --config /path/to/config.yaml
//
// Configuration merges built-in defaults, the optional YAML file, and
// NETKV_* environment variables, in increasing priority.
package main
