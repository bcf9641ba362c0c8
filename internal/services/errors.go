package services

import (
	"fmt"
)

// ValidationError covers malformed or unacceptable input: missing items,
// unavailable menu entries, bad PIN or phone format.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError covers lookups for orders, payments or tables that do
// not exist.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

// StateConflictError covers mutations the current state forbids:
// overpayment, touching a closed order, double pickup.
type StateConflictError struct {
	Message string
}

func (e *StateConflictError) Error() string {
	return e.Message
}

func newStateConflictError(format string, args ...interface{}) *StateConflictError {
	return &StateConflictError{Message: fmt.Sprintf(format, args...)}
}

// Session error codes clients react to (re-scan prompts).
const (
	SessionCodeExpired       = "SESSION_EXPIRED"
	SessionCodeTableMismatch = "SESSION_TABLE_MISMATCH"
)

// SessionError covers expired or mismatched table sessions; Code is
// machine-readable for client-side handling.
type SessionError struct {
	Code    string
	Message string
}

func (e *SessionError) Error() string {
	return e.Message
}
