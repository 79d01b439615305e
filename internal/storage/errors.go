package storage

import "errors"

// Common storage errors
var (
	// ErrCredentialNotFound indicates that admin credential is not set up
	ErrCredentialNotFound = errors.New("admin credential not found")

	// ErrSessionNotFound indicates that no session exists
	ErrSessionNotFound = errors.New("session not found")

	// ErrAttemptsNotFound indicates that no failed-attempt record exists
	ErrAttemptsNotFound = errors.New("failed attempts record not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
