package domain

import (
	"errors"
	"fmt"
)

// DomainError is a business error with a structured code. Codes are
// stable identifiers; messages are human-readable and may change.
type DomainError struct {
	Code    string // error code (e.g. "NK-KEY-4040")
	Message string // human-readable message
	Details string // optional additional details
	Cause   error  // underlying error, if any
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches two DomainErrors by code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// ErrorCode extracts the code from an error if it is a DomainError.
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Key errors (KEY).
var (
	// ErrKeyNotFound indicates the requested key does not exist, or its
	// entry has expired.
	ErrKeyNotFound = NewDomainError("NK-KEY-4040", "key not found")

	// ErrKeyExists indicates an add-only upsert hit an existing live key.
	ErrKeyExists = NewDomainError("NK-KEY-4090", "key exists")
)

// Store errors (STOR).
var (
	// ErrInvalidRange indicates a dump request addressed buckets outside
	// the table's current capacity.
	ErrInvalidRange = NewDomainError("NK-STOR-4000", "invalid bucket range")
)

// Protocol errors (PROTO).
var (
	// ErrProtocol indicates an unparseable or wrong-arity command line.
	// Recovered per request: the connection continues.
	ErrProtocol = NewDomainError("NK-PROTO-4000", "invalid command format")

	// ErrUnknownCommand indicates a well-formed line with an unrecognized
	// command name.
	ErrUnknownCommand = NewDomainError("NK-PROTO-4001", "unknown command")
)

// Connection errors (CONN).
var (
	// ErrConnectionClosed indicates the peer disconnected or the socket
	// failed fatally. Never surfaced to other connections.
	ErrConnectionClosed = NewDomainError("NK-CONN-4990", "connection closed")
)
