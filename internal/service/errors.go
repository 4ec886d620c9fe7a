package service

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned for requests that fail domain validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrResyncInProgress is returned when a resync is requested while one
	// is already running. The caller gets a conflict, never a queue.
	ErrResyncInProgress = errors.New("resync already in progress")
)
