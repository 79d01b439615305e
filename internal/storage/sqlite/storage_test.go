package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/matswap/internal/models"
	"github.com/iudanet/matswap/internal/storage"
)

func setupTestStorage(t *testing.T) *Storage {
	t.Helper()

	// Используем in-memory database для тестов
	s, err := New(context.Background(), ":memory:")
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

func TestNew_RunsMigrations(t *testing.T) {
	s := setupTestStorage(t)

	for _, table := range []string{"admin_credentials", "auth_session", "failed_attempts", "catalog_entries"} {
		var name string
		err := s.DB().QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, "table %s must exist", table)
		assert.Equal(t, table, name)
	}
}

func TestPing(t *testing.T) {
	s := setupTestStorage(t)
	require.NoError(t, s.Ping(context.Background()))

	require.NoError(t, s.Close())
	assert.Error(t, s.Ping(context.Background()))
}

func TestNew_FileReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "matswap.sqlite")

	s, err := New(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, s.SaveRecord(ctx, &models.Record{ID: "STYLE-500", Type: models.RecordTypeStyle, Name: "Chaise"}))
	require.NoError(t, s.Close())

	// Повторное открытие не должно повторно применять миграции
	s, err = New(ctx, dbPath)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	records, err := s.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Chaise", records[0].Name)
}

func TestCredential(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	_, err := s.GetCredential(ctx)
	assert.ErrorIs(t, err, storage.ErrCredentialNotFound)

	now := time.Now().UTC().Truncate(time.Millisecond)
	cred := &models.AdminCredential{
		ID:        "cred-1",
		Hash:      "deadbeef",
		Salt:      "c2FsdA==",
		KDF:       models.KDFParams{Time: 1, Memory: 65536, Threads: 4, KeyLen: 32},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.SaveCredential(ctx, cred))

	got, err := s.GetCredential(ctx)
	require.NoError(t, err)
	assert.Equal(t, cred.ID, got.ID)
	assert.Equal(t, cred.Hash, got.Hash)
	assert.Equal(t, cred.Salt, got.Salt)
	assert.Equal(t, cred.KDF, got.KDF)
	assert.True(t, cred.CreatedAt.Equal(got.CreatedAt))

	// Перезапись: в таблице остается одна строка
	cred.ID = "cred-2"
	require.NoError(t, s.SaveCredential(ctx, cred))
	var count int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM admin_credentials`).Scan(&count))
	assert.Equal(t, 1, count)

	got, err = s.GetCredential(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cred-2", got.ID)
}

func TestSession(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	_, err := s.GetSession(ctx)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)

	now := time.Now().UTC()
	require.NoError(t, s.SaveSession(ctx, &models.Session{Token: "t1", CreatedAt: now, ExpiresAt: now.Add(time.Minute)}))

	got, err := s.GetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t1", got.Token)
	assert.True(t, now.Add(time.Minute).Equal(got.ExpiresAt))

	require.NoError(t, s.DeleteSession(ctx))
	_, err = s.GetSession(ctx)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
	assert.NoError(t, s.DeleteSession(ctx))
}

func TestFailedAttempts(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	_, err := s.GetFailedAttempts(ctx)
	assert.ErrorIs(t, err, storage.ErrAttemptsNotFound)

	require.NoError(t, s.SaveFailedAttempts(ctx, &models.FailedAttempts{Attempts: 4}))
	got, err := s.GetFailedAttempts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Attempts)
	assert.Nil(t, got.LockoutUntil)

	until := time.Now().UTC().Add(15 * time.Minute)
	require.NoError(t, s.SaveFailedAttempts(ctx, &models.FailedAttempts{Attempts: 5, LockoutUntil: &until}))
	got, err = s.GetFailedAttempts(ctx)
	require.NoError(t, err)
	require.NotNil(t, got.LockoutUntil)
	assert.True(t, until.Equal(*got.LockoutUntil))

	require.NoError(t, s.DeleteFailedAttempts(ctx))
	_, err = s.GetFailedAttempts(ctx)
	assert.ErrorIs(t, err, storage.ErrAttemptsNotFound)
}

func TestResetAuth(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	now := time.Now().UTC()
	require.NoError(t, s.SaveCredential(ctx, &models.AdminCredential{ID: "c", Hash: "h", Salt: "s", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, s.SaveSession(ctx, &models.Session{Token: "t", CreatedAt: now, ExpiresAt: now}))
	require.NoError(t, s.SaveFailedAttempts(ctx, &models.FailedAttempts{Attempts: 1}))
	require.NoError(t, s.SaveRecord(ctx, &models.Record{ID: "MAT-001", Type: models.RecordTypeMaterial}))

	require.NoError(t, s.ResetAuth(ctx))

	_, err := s.GetCredential(ctx)
	assert.ErrorIs(t, err, storage.ErrCredentialNotFound)
	_, err = s.GetSession(ctx)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
	_, err = s.GetFailedAttempts(ctx)
	assert.ErrorIs(t, err, storage.ErrAttemptsNotFound)

	records, err := s.ListRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestSaveListRecords(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	records, err := s.ListRecords(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	require.NoError(t, s.SaveRecord(ctx, &models.Record{ID: "STYLE-200", Type: models.RecordTypeStyle, Name: "Sofa"}))
	require.NoError(t, s.SaveRecord(ctx, &models.Record{ID: "MAT-050", Type: models.RecordTypeMaterial, Name: "Linen", Description: "grey"}))
	require.NoError(t, s.SaveRecord(ctx, &models.Record{ID: "STYLE-100", Type: models.RecordTypeStyle, Name: "Chair"}))

	// Перезапись первой записи не меняет порядок и убирает старые поля
	require.NoError(t, s.SaveRecord(ctx, &models.Record{ID: "STYLE-200", Type: models.RecordTypeStyle, Name: "Sofa v2", ImageURL: "img"}))
	require.NoError(t, s.SaveRecord(ctx, &models.Record{ID: "MAT-050", Type: models.RecordTypeMaterial, Name: "Linen"}))

	records, err = s.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"STYLE-200", "MAT-050", "STYLE-100"}, []string{records[0].ID, records[1].ID, records[2].ID})
	assert.Equal(t, "Sofa v2", records[0].Name)
	assert.Equal(t, "img", records[0].ImageURL)
	assert.Empty(t, records[1].Description)
	assert.Equal(t, models.RecordTypeMaterial, records[1].Type)

	assert.Error(t, s.SaveRecord(ctx, nil))
}
