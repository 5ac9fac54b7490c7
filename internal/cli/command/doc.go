// Package command provides CLI command definitions for netkv-cli.
//
// It uses urfave/cli/v2 for command parsing. Commands talk to the
// server through the driver package's line protocol client.
package command
