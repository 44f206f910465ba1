package repository

import "errors"

var (
	// ErrNotFound is returned by conditional writes whose target is missing.
	ErrNotFound = errors.New("document not found")
	// ErrConflict is returned when a conditional write finds the document
	// in a state it may not overwrite.
	ErrConflict = errors.New("document state conflict")
)
