package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/matswap/internal/models"
	"github.com/iudanet/matswap/internal/storage"
)

// putJSON сериализует значение в JSON и сохраняет его под currentKey
func (s *Storage) putJSON(name []byte, v any) error {
	return s.update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, name)
		if err != nil {
			return err
		}

		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", name, err)
		}

		if err := b.Put(currentKey, data); err != nil {
			return fmt.Errorf("failed to save %s: %w", name, err)
		}

		return nil
	})
}

// getJSON читает значение из-под currentKey; notFound возвращается если записи нет
func (s *Storage) getJSON(name []byte, v any, notFound error) error {
	return s.view(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, name)
		if err != nil {
			return err
		}

		data := b.Get(currentKey)
		if data == nil {
			return notFound
		}

		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to unmarshal %s: %w", name, err)
		}

		return nil
	})
}

// deleteKey удаляет currentKey; отсутствие записи не ошибка
func (s *Storage) deleteKey(name []byte) error {
	return s.update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, name)
		if err != nil {
			return err
		}

		if err := b.Delete(currentKey); err != nil {
			return fmt.Errorf("failed to delete %s: %w", name, err)
		}

		return nil
	})
}

// SaveCredential stores the admin credential
func (s *Storage) SaveCredential(ctx context.Context, cred *models.AdminCredential) error {
	if cred == nil {
		return fmt.Errorf("credential is nil")
	}
	return s.putJSON(bucketCredentials, cred)
}

// GetCredential retrieves the admin credential
func (s *Storage) GetCredential(ctx context.Context) (*models.AdminCredential, error) {
	cred := &models.AdminCredential{}
	if err := s.getJSON(bucketCredentials, cred, storage.ErrCredentialNotFound); err != nil {
		return nil, err
	}
	return cred, nil
}

// SaveSession stores the session
func (s *Storage) SaveSession(ctx context.Context, session *models.Session) error {
	if session == nil {
		return fmt.Errorf("session is nil")
	}
	return s.putJSON(bucketSession, session)
}

// GetSession retrieves the session
func (s *Storage) GetSession(ctx context.Context) (*models.Session, error) {
	session := &models.Session{}
	if err := s.getJSON(bucketSession, session, storage.ErrSessionNotFound); err != nil {
		return nil, err
	}
	return session, nil
}

// DeleteSession removes the session (logout)
func (s *Storage) DeleteSession(ctx context.Context) error {
	return s.deleteKey(bucketSession)
}

// SaveFailedAttempts stores the failed-attempt record
func (s *Storage) SaveFailedAttempts(ctx context.Context, attempts *models.FailedAttempts) error {
	if attempts == nil {
		return fmt.Errorf("failed attempts record is nil")
	}
	return s.putJSON(bucketAttempts, attempts)
}

// GetFailedAttempts retrieves the failed-attempt record
func (s *Storage) GetFailedAttempts(ctx context.Context) (*models.FailedAttempts, error) {
	attempts := &models.FailedAttempts{}
	if err := s.getJSON(bucketAttempts, attempts, storage.ErrAttemptsNotFound); err != nil {
		return nil, err
	}
	return attempts, nil
}

// DeleteFailedAttempts removes the failed-attempt record
func (s *Storage) DeleteFailedAttempts(ctx context.Context) error {
	return s.deleteKey(bucketAttempts)
}

// ResetAuth удаляет credential, session и failed attempts в одной транзакции
func (s *Storage) ResetAuth(ctx context.Context) error {
	return s.update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketCredentials, bucketSession, bucketAttempts} {
			b, err := bucket(tx, name)
			if err != nil {
				return err
			}
			if err := b.Delete(currentKey); err != nil {
				return fmt.Errorf("failed to delete %s: %w", name, err)
			}
		}
		return nil
	})
}
