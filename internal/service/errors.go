package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrScheduleNotFound is the normal outcome of an exact-date lookup
	// with no matching row. It is not a failure and is never retried.
	ErrScheduleNotFound = errors.New("no schedule row for that date")

	ErrDeviceNotFound = errors.New("device record not found")

	// ErrEmptyBatch means an upload parsed to zero valid rows.
	ErrEmptyBatch = errors.New("upload contains no valid schedule rows")

	// ErrInvalidPreviewToken covers unknown, revoked and expired tokens
	// alike; callers get no hint which one it was.
	ErrInvalidPreviewToken = errors.New("invalid or expired preview token")
)

// ValidationError reports malformed input, such as an upload whose header
// is missing required columns. Surfaced with 4xx semantics.
type ValidationError struct {
	Message      string
	FoundColumns []string
}

func (e *ValidationError) Error() string {
	if len(e.FoundColumns) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (found columns: %s)", e.Message, strings.Join(e.FoundColumns, ", "))
}

// InsertError reports a failed insert batch during ingestion. Batches
// committed before the failure stay persisted; Inserted tells the caller
// exactly how many rows made it, so they can decide to re-upload.
type InsertError struct {
	Label     string
	Requested int
	Inserted  int
	Err       error
}

func (e *InsertError) Error() string {
	return fmt.Sprintf("schedule insert for %q failed after %d of %d rows: %v",
		e.Label, e.Inserted, e.Requested, e.Err)
}

func (e *InsertError) Unwrap() error {
	return e.Err
}
