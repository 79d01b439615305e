package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/iudanet/matswap/internal/models"
	"github.com/iudanet/matswap/internal/storage"
)

// setJSON сохраняет значение; ttl <= 0 означает без срока жизни
func (s *Storage) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	if ttl < 0 {
		ttl = 0
	}

	if err := s.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}

	return nil
}

func (s *Storage) getJSON(ctx context.Context, key string, v any, notFound error) error {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return notFound
		}
		return fmt.Errorf("failed to get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}

	return nil
}

// SaveCredential stores the admin credential
func (s *Storage) SaveCredential(ctx context.Context, cred *models.AdminCredential) error {
	if cred == nil {
		return fmt.Errorf("credential is nil")
	}
	return s.setJSON(ctx, s.credentialKey(), cred, 0)
}

// GetCredential retrieves the admin credential
func (s *Storage) GetCredential(ctx context.Context) (*models.AdminCredential, error) {
	cred := &models.AdminCredential{}
	if err := s.getJSON(ctx, s.credentialKey(), cred, storage.ErrCredentialNotFound); err != nil {
		return nil, err
	}
	return cred, nil
}

// SaveSession stores the session; the key expires together with the session
func (s *Storage) SaveSession(ctx context.Context, session *models.Session) error {
	if session == nil {
		return fmt.Errorf("session is nil")
	}
	return s.setJSON(ctx, s.sessionKey(), session, time.Until(session.ExpiresAt))
}

// GetSession retrieves the session
func (s *Storage) GetSession(ctx context.Context) (*models.Session, error) {
	session := &models.Session{}
	if err := s.getJSON(ctx, s.sessionKey(), session, storage.ErrSessionNotFound); err != nil {
		return nil, err
	}
	return session, nil
}

// DeleteSession removes the session
func (s *Storage) DeleteSession(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.sessionKey()).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// SaveFailedAttempts stores the failed-attempt record.
// Запись с блокировкой живет ровно до LockoutUntil: после истечения счетчик обнуляется сам.
func (s *Storage) SaveFailedAttempts(ctx context.Context, attempts *models.FailedAttempts) error {
	if attempts == nil {
		return fmt.Errorf("failed attempts record is nil")
	}

	var ttl time.Duration
	if attempts.LockoutUntil != nil {
		ttl = time.Until(*attempts.LockoutUntil)
	}

	return s.setJSON(ctx, s.attemptsKey(), attempts, ttl)
}

// GetFailedAttempts retrieves the failed-attempt record
func (s *Storage) GetFailedAttempts(ctx context.Context) (*models.FailedAttempts, error) {
	attempts := &models.FailedAttempts{}
	if err := s.getJSON(ctx, s.attemptsKey(), attempts, storage.ErrAttemptsNotFound); err != nil {
		return nil, err
	}
	return attempts, nil
}

// DeleteFailedAttempts removes the failed-attempt record
func (s *Storage) DeleteFailedAttempts(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.attemptsKey()).Err(); err != nil {
		return fmt.Errorf("failed to delete failed attempts: %w", err)
	}
	return nil
}

// ResetAuth удаляет все auth ключи одной командой DEL
func (s *Storage) ResetAuth(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.credentialKey(), s.sessionKey(), s.attemptsKey()).Err(); err != nil {
		return fmt.Errorf("failed to reset auth data: %w", err)
	}
	return nil
}
