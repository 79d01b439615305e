package storage

import (
	"context"

	"github.com/iudanet/matswap/internal/models"
)

//go:generate moq -out authstorage_mock.go . AuthStorage

// CredentialStorage defines the admin-credentials slot.
// There is at most one credential per installation.
type CredentialStorage interface {
	// SaveCredential stores the credential, replacing any previous one
	SaveCredential(ctx context.Context, cred *models.AdminCredential) error

	// GetCredential retrieves the stored credential
	// Returns ErrCredentialNotFound if admin is not set up
	GetCredential(ctx context.Context) (*models.AdminCredential, error)
}

// SessionStorage defines the auth-session slot
type SessionStorage interface {
	// SaveSession stores the session, replacing any previous one
	SaveSession(ctx context.Context, session *models.Session) error

	// GetSession retrieves the stored session
	// Returns ErrSessionNotFound if no session exists
	GetSession(ctx context.Context) (*models.Session, error)

	// DeleteSession removes the session. Deleting a missing session is not an error.
	DeleteSession(ctx context.Context) error
}

// AttemptStorage defines the failed-attempts slot
type AttemptStorage interface {
	// SaveFailedAttempts stores the failed-attempt record
	SaveFailedAttempts(ctx context.Context, attempts *models.FailedAttempts) error

	// GetFailedAttempts retrieves the failed-attempt record
	// Returns ErrAttemptsNotFound if there were no failures since last reset
	GetFailedAttempts(ctx context.Context) (*models.FailedAttempts, error)

	// DeleteFailedAttempts removes the record. Deleting a missing record is not an error.
	DeleteFailedAttempts(ctx context.Context) error
}

// AuthStorage combines all auth slots
type AuthStorage interface {
	CredentialStorage
	SessionStorage
	AttemptStorage

	// ResetAuth deletes credential, session and failed attempts in one operation
	ResetAuth(ctx context.Context) error
}
