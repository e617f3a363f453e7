/*
errors.go - Centralized error types for the scheduling engine

ERROR CATEGORIES:
  1. Not found     - an id chain does not resolve (template, roster, group, ...)
  2. Validation    - malformed time strings, empty names, unknown enum values
  3. Transition    - an attendance or bid transition from the wrong state
  4. Backend       - both the remote store and the local mirror failed

USAGE:
  Callers branch with errors.Is on the sentinels and errors.As on the
  structured types when they need the details:

    if errors.Is(err, schedule.ErrNotFound) {
        // render 404
    }

SEE ALSO:
  - api/handlers.go: maps these errors onto HTTP status codes
*/
package schedule

import (
	"errors"
	"fmt"
	"strconv"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrNotFound = errors.New("not found")

	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition is returned when a shift or bid is not in a
	// state that allows the requested operation.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrShiftAlreadyOffered is returned when approving a bid for a shift
	// that another bid already holds.
	ErrShiftAlreadyOffered = errors.New("shift already offered to another employee")

	// ErrDuplicateDate is returned by stores when a second roster or
	// timesheet is saved for a date that already has one.
	ErrDuplicateDate = errors.New("date already has a record")

	// ErrBackendUnavailable is returned only when the local mirror failed too.
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError names the missing link of an id chain.
type NotFoundError struct {
	Kind string // "template", "roster", "group", "subgroup", "shift", "bid", ...
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, quote(e.ID))
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func notFound(kind string, id int) error {
	return &NotFoundError{Kind: kind, ID: strconv.Itoa(id)}
}

// ValidationError is surfaced verbatim to the user.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// FormatError reports an unparseable "HH:MM" value.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid time %s: %s", quote(e.Input), e.Reason)
}

func (e *FormatError) Unwrap() error { return ErrValidation }

// TransitionError reports an operation attempted from the wrong state.
type TransitionError struct {
	ID   string
	From string
	Op   string
}

func (e *TransitionError) Error() string {
	from := e.From
	if from == "" {
		from = "unassigned"
	}
	return fmt.Sprintf("cannot %s %s from status %s", e.Op, quote(e.ID), from)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// =============================================================================
// ERROR HELPERS
// =============================================================================

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsClientError returns true if the error is due to caller input or state,
// as opposed to an infrastructure failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrShiftAlreadyOffered) ||
		errors.Is(err, ErrDuplicateDate)
}

func quote(s string) string { return strconv.Quote(s) }
