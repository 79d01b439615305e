package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/matswap/internal/models"
	"github.com/iudanet/matswap/internal/storage"
)

// SaveCredential stores the admin credential
func (s *Storage) SaveCredential(ctx context.Context, cred *models.AdminCredential) error {
	if cred == nil {
		return fmt.Errorf("credential is nil")
	}

	query := `
		INSERT OR REPLACE INTO admin_credentials
			(slot, credential_id, hash, salt, kdf_time, kdf_memory, kdf_threads, kdf_key_len, created_at, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		cred.ID,
		cred.Hash,
		cred.Salt,
		cred.KDF.Time,
		cred.KDF.Memory,
		cred.KDF.Threads,
		cred.KDF.KeyLen,
		cred.CreatedAt,
		cred.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}

	return nil
}

// GetCredential retrieves the admin credential
func (s *Storage) GetCredential(ctx context.Context) (*models.AdminCredential, error) {
	query := `
		SELECT credential_id, hash, salt, kdf_time, kdf_memory, kdf_threads, kdf_key_len, created_at, updated_at
		FROM admin_credentials
		WHERE slot = 1
	`

	cred := &models.AdminCredential{}

	err := s.db.QueryRowContext(ctx, query).Scan(
		&cred.ID,
		&cred.Hash,
		&cred.Salt,
		&cred.KDF.Time,
		&cred.KDF.Memory,
		&cred.KDF.Threads,
		&cred.KDF.KeyLen,
		&cred.CreatedAt,
		&cred.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrCredentialNotFound
		}
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}

	return cred, nil
}

// SaveSession stores the session
func (s *Storage) SaveSession(ctx context.Context, session *models.Session) error {
	if session == nil {
		return fmt.Errorf("session is nil")
	}

	query := `
		INSERT OR REPLACE INTO auth_session (slot, token, created_at, expires_at)
		VALUES (1, ?, ?, ?)
	`

	if _, err := s.db.ExecContext(ctx, query, session.Token, session.CreatedAt, session.ExpiresAt); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// GetSession retrieves the session
func (s *Storage) GetSession(ctx context.Context) (*models.Session, error) {
	query := `SELECT token, created_at, expires_at FROM auth_session WHERE slot = 1`

	session := &models.Session{}

	err := s.db.QueryRowContext(ctx, query).Scan(
		&session.Token,
		&session.CreatedAt,
		&session.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

// DeleteSession removes the session
func (s *Storage) DeleteSession(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM auth_session`); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// SaveFailedAttempts stores the failed-attempt record
func (s *Storage) SaveFailedAttempts(ctx context.Context, attempts *models.FailedAttempts) error {
	if attempts == nil {
		return fmt.Errorf("failed attempts record is nil")
	}

	var lockoutUntil sql.NullTime
	if attempts.LockoutUntil != nil {
		lockoutUntil = sql.NullTime{Time: *attempts.LockoutUntil, Valid: true}
	}

	query := `
		INSERT OR REPLACE INTO failed_attempts (slot, attempts, lockout_until)
		VALUES (1, ?, ?)
	`

	if _, err := s.db.ExecContext(ctx, query, attempts.Attempts, lockoutUntil); err != nil {
		return fmt.Errorf("failed to save failed attempts: %w", err)
	}

	return nil
}

// GetFailedAttempts retrieves the failed-attempt record
func (s *Storage) GetFailedAttempts(ctx context.Context) (*models.FailedAttempts, error) {
	query := `SELECT attempts, lockout_until FROM failed_attempts WHERE slot = 1`

	attempts := &models.FailedAttempts{}
	var lockoutUntil sql.NullTime

	err := s.db.QueryRowContext(ctx, query).Scan(&attempts.Attempts, &lockoutUntil)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrAttemptsNotFound
		}
		return nil, fmt.Errorf("failed to get failed attempts: %w", err)
	}

	if lockoutUntil.Valid {
		attempts.LockoutUntil = &lockoutUntil.Time
	}

	return attempts, nil
}

// DeleteFailedAttempts removes the failed-attempt record
func (s *Storage) DeleteFailedAttempts(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM failed_attempts`); err != nil {
		return fmt.Errorf("failed to delete failed attempts: %w", err)
	}
	return nil
}

// ResetAuth удаляет все auth данные в одной транзакции
func (s *Storage) ResetAuth(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, table := range []string{"admin_credentials", "auth_session", "failed_attempts"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reset: %w", err)
	}

	return nil
}
