package store

import "errors"

var (
	// ErrNotFound is returned by Get and History when no record exists for the key.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidFields rejects patches carrying out-of-range values.
	ErrInvalidFields = errors.New("invalid record fields")
	// ErrInvalidKey rejects blank group or id values.
	ErrInvalidKey = errors.New("invalid record key")
)
