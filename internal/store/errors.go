package store

import "errors"

var (
	// ErrNotFound is returned when a document id resolves to nothing.
	ErrNotFound = errors.New("document not found")
	// ErrConflict is returned when a mutation carries a stale revision.
	ErrConflict = errors.New("revision conflict")
	// ErrAttachmentNotFound is returned when a named attachment is missing.
	ErrAttachmentNotFound = errors.New("attachment not found")
)
