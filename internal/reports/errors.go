package reports

import (
	"errors"
	"fmt"
)

// ErrorKind classifies errors surfaced to callers of the report service
type ErrorKind string

const (
	KindInvalidInput     ErrorKind = "invalid_input"
	KindDuplicateReport  ErrorKind = "duplicate_report"
	KindStoreUnavailable ErrorKind = "store_unavailable"
)

var (
	// ErrInvalidInput marks a submission missing required fields or carrying out-of-range values
	ErrInvalidInput = errors.New("invalid input")
	// ErrStoreUnavailable marks a failed read or write against the report store
	ErrStoreUnavailable = errors.New("report store unavailable")
)

// DuplicateError is returned when a submission matches an existing report
type DuplicateError struct {
	ExistingID string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate report: matches existing report %s", e.ExistingID)
}

// KindOf returns the kind of err, or an empty kind for unclassified errors.
func KindOf(err error) ErrorKind {
	var dup *DuplicateError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &dup):
		return KindDuplicateReport
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrStoreUnavailable):
		return KindStoreUnavailable
	default:
		return ""
	}
}
