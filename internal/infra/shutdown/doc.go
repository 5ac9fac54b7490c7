// Package shutdown provides graceful shutdown handling for netkv.
//
// A Handler waits for SIGINT/SIGTERM (or a programmatic Trigger) and
// runs registered hooks in reverse registration order under a timeout
// context.
package shutdown
