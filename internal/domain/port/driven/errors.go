// Package driven defines secondary port interfaces for external adapters.
package driven

import "errors"

// Sentinel errors shared by store and collaborator implementations.
var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a uniqueness constraint rejected the write.
	ErrAlreadyExists = errors.New("already exists")

	// ErrConflict indicates the row changed state before a conditional write.
	ErrConflict = errors.New("conflicting state change")

	// ErrInvalidSignature indicates a webhook payload failed signature verification
	// or could not be parsed after verification.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrNotConfigured indicates an external collaborator has no credentials or URL.
	ErrNotConfigured = errors.New("external service not configured")
)
