// Package config defines the netkv-server configuration structure,
// its defaults, and validation.
package config
