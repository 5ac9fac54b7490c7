// Package main provides the entry point for netkv-cli.
//
// netkv-cli is the command-line client for netkv, supporting
// single-command execution and a write benchmark mode.
//
// Usage:
//
//	netkv-cli [--server ADDR] exec COMMAND [ARG...]
//	netkv-cli [--server ADDR] bench [-n N] [-c C]
package main
