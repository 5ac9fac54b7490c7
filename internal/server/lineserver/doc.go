// Package lineserver implements the netkv text protocol server: a TCP
// listener, a fixed worker pool, and the command interpreter.
//
// The protocol is newline-delimited ASCII, one reply per request.
// Connections are multiplexed through a shared readiness queue: the
// acceptor only accepts and registers; a per-connection watcher blocks
// on the socket and posts exactly one readiness notification, then
// stops until the connection is re-armed. Whichever pool worker
// receives the notification owns the connection for that round — it
// drains buffered complete lines, dispatches each to the interpreter,
// writes the replies, and re-arms. The one-shot handoff guarantees at
// most one worker ever reads a given connection at a time.
//
// Connection lifecycle:
//
//	ACCEPTED -> REGISTERED -> (READABLE -> PROCESSING -> REGISTERED)* -> CLOSED
//
// A failure on one connection (protocol abuse, peer reset, idle
// timeout) tears down only that connection.
package lineserver
