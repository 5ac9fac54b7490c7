// Package driver provides the TCP line protocol client used by
// netkv-cli: a thin connection wrapper plus a write benchmark runner.
package driver
