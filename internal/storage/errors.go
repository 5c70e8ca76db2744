package storage

import "errors"

var (
	// ErrNotFound means the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a session was written by another turn since it was read.
	ErrConflict = errors.New("session version conflict")
)
