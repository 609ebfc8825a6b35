// Package apperrors holds the error taxonomy shared by the gateway, the
// reading engine and the HTTP layer.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAMember is returned when the caller has not joined the group.
	ErrNotAMember = errors.New("not a member of this group")
	// ErrNotFound is returned when a group, book, chapter or schedule does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks input that was rejected before any write.
	ErrValidation = errors.New("validation failed")
	// ErrConflict marks a request that is valid but not allowed in the current state.
	ErrConflict = errors.New("conflict")
	// ErrTransientSync marks a network or server failure while syncing progress.
	ErrTransientSync = errors.New("sync failed")
	// ErrUnauthorized is returned when the session is missing or expired.
	ErrUnauthorized = errors.New("unauthorized")
)

// Validation returns an error wrapping ErrValidation with a readable reason.
func Validation(format string, args ...any) error {
	return &reasonError{kind: ErrValidation, reason: fmt.Sprintf(format, args...)}
}

// Conflict returns an error wrapping ErrConflict with a readable reason.
func Conflict(format string, args ...any) error {
	return &reasonError{kind: ErrConflict, reason: fmt.Sprintf(format, args...)}
}

// Reason returns the human readable part of err, without the kind prefix.
func Reason(err error) string {
	var re *reasonError
	if errors.As(err, &re) {
		return re.reason
	}
	return err.Error()
}

type reasonError struct {
	kind   error
	reason string
}

func (e *reasonError) Error() string {
	return e.kind.Error() + ": " + e.reason
}

func (e *reasonError) Unwrap() error {
	return e.kind
}
