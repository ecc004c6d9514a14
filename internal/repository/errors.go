package repository

import "errors"

var (
	// ErrNotFound means no document matched. Callers decide whether that
	// is a failure or a normal outcome.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a document with the same ID already exists.
	ErrConflict = errors.New("document conflict")
)
