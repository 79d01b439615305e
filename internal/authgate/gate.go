// Package authgate implements the single-admin password gate:
// password setup, verification with progressive lockout, and sessions.
//
// Expiry of both lockouts and sessions is evaluated lazily when the state is read.
// Checks that answer "is access allowed" fail closed on storage errors.
package authgate

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/matswap/internal/config"
	"github.com/iudanet/matswap/internal/crypto"
	"github.com/iudanet/matswap/internal/models"
	"github.com/iudanet/matswap/internal/storage"
	"github.com/iudanet/matswap/internal/validation"
)

// Значения по умолчанию
const (
	DefaultMaxFailedAttempts = 5
	DefaultLockoutDuration   = 15 * time.Minute
	DefaultSessionTimeout    = 30 * time.Minute
)

// Options настраивает Gate
type Options struct {
	Now               func() time.Time // источник времени, подменяется в тестах
	KDF               crypto.Params    // параметры хеширования для новых паролей
	LockoutDuration   time.Duration
	SessionTimeout    time.Duration
	MaxFailedAttempts int
	MinPasswordLength int
}

// DefaultOptions returns the standard gate settings
func DefaultOptions() Options {
	return Options{
		Now:               time.Now,
		KDF:               crypto.DefaultParams,
		LockoutDuration:   DefaultLockoutDuration,
		SessionTimeout:    DefaultSessionTimeout,
		MaxFailedAttempts: DefaultMaxFailedAttempts,
		MinPasswordLength: validation.DefaultMinPasswordLen,
	}
}

// OptionsFromConfig переводит секцию auth конфигурации в Options
func OptionsFromConfig(cfg config.AuthConfig) Options {
	opts := Options{
		LockoutDuration:   cfg.LockoutDuration,
		SessionTimeout:    cfg.SessionTimeout,
		MaxFailedAttempts: cfg.MaxFailedAttempts,
		MinPasswordLength: cfg.MinPasswordLength,
	}
	if cfg.KDF != (config.KDFConfig{}) {
		opts.KDF = crypto.Params{
			Time:    cfg.KDF.Time,
			Memory:  cfg.KDF.Memory,
			Threads: cfg.KDF.Threads,
			KeyLen:  crypto.DefaultParams.KeyLen,
		}
	}
	return opts
}

// withDefaults заполняет нулевые поля значениями по умолчанию
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Now == nil {
		o.Now = d.Now
	}
	if o.KDF == (crypto.Params{}) {
		o.KDF = d.KDF
	}
	if o.LockoutDuration <= 0 {
		o.LockoutDuration = d.LockoutDuration
	}
	if o.SessionTimeout <= 0 {
		o.SessionTimeout = d.SessionTimeout
	}
	if o.MaxFailedAttempts <= 0 {
		o.MaxFailedAttempts = d.MaxFailedAttempts
	}
	if o.MinPasswordLength <= 0 {
		o.MinPasswordLength = d.MinPasswordLength
	}
	return o
}

// VerifyResult результат успешной проверки пароля
type VerifyResult struct {
	ExpiresAt time.Time
	Token     string
	Success   bool
}

// Gate управляет учетными данными администратора, блокировкой и сессией.
// Все операции сериализуются внутренним мьютексом.
type Gate struct {
	store  storage.AuthStorage
	logger *slog.Logger
	opts   Options
	mu     sync.Mutex
}

// New создает Gate поверх хранилища
func New(store storage.AuthStorage, logger *slog.Logger, opts Options) *Gate {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Gate{
		store:  store,
		logger: logger,
		opts:   opts.withDefaults(),
	}
}

// Options returns the effective settings
func (g *Gate) Options() Options {
	return g.opts
}

func (g *Gate) now() time.Time {
	return g.opts.Now()
}

// IsSetUp reports whether an admin credential exists.
// Returns false on any storage error.
func (g *Gate) IsSetUp(ctx context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, err := g.store.GetCredential(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrCredentialNotFound) {
			g.logger.WarnContext(ctx, "Failed to read admin credential",
				slog.Any("error", err))
		}
		return false
	}
	return true
}

// SetupPassword stores a new credential with a fresh salt, replacing any previous one.
func (g *Gate) SetupPassword(ctx context.Context, password string) error {
	if err := validation.ValidatePassword(password, g.opts.MinPasswordLength); err != nil {
		return fmt.Errorf("%w: %w", ErrWeakPassword, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	cred, err := g.newCredential(password)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSetupFailed, err)
	}
	cred.ID = uuid.New().String()
	cred.CreatedAt = now
	cred.UpdatedAt = now

	if err := g.store.SaveCredential(ctx, cred); err != nil {
		g.logger.ErrorContext(ctx, "Failed to save admin credential",
			slog.Any("error", err))
		return fmt.Errorf("%w: %w", ErrSetupFailed, err)
	}

	g.logger.InfoContext(ctx, "Admin password set up",
		slog.String("credential_id", cred.ID))

	return nil
}

// newCredential генерирует соль и хеш для пароля
func (g *Gate) newCredential(password string) (*models.AdminCredential, error) {
	salt, err := crypto.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	hash, err := crypto.HashPassword(password, salt, g.opts.KDF)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return &models.AdminCredential{
		Hash: hash,
		Salt: crypto.EncodeSalt(salt),
		KDF: models.KDFParams{
			Time:    g.opts.KDF.Time,
			Memory:  g.opts.KDF.Memory,
			Threads: g.opts.KDF.Threads,
			KeyLen:  g.opts.KDF.KeyLen,
		},
	}, nil
}

// VerifyPassword checks the password and opens a new session on success.
//
// Errors: *LockoutError (ErrLockedOut or ErrTooManyAttempts), ErrNotSetUp,
// *InvalidPasswordError, ErrAuthenticationFailed for storage failures.
func (g *Gate) VerifyPassword(ctx context.Context, password string) (*VerifyResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.verify(ctx, password)
}

// verify выполняет проверку пароля. Вызывается под mu.
func (g *Gate) verify(ctx context.Context, password string) (*VerifyResult, error) {
	// 1. Проверяем блокировку
	status, err := g.lockoutStatus(ctx)
	if err != nil {
		return nil, g.authFailed(ctx, "Failed to read lockout status", err)
	}
	if status.IsLocked {
		return nil, newLockoutError(ErrLockedOut, status.RemainingTime)
	}

	// 2. Читаем учетные данные
	cred, err := g.store.GetCredential(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrCredentialNotFound) {
			return nil, ErrNotSetUp
		}
		return nil, g.authFailed(ctx, "Failed to read admin credential", err)
	}

	// 3. Сравниваем хеши
	salt, err := crypto.DecodeSalt(cred.Salt)
	if err != nil {
		return nil, g.authFailed(ctx, "Stored salt is corrupted", err)
	}

	params := crypto.Params{
		Time:    cred.KDF.Time,
		Memory:  cred.KDF.Memory,
		Threads: cred.KDF.Threads,
		KeyLen:  cred.KDF.KeyLen,
	}
	match, err := crypto.VerifyPassword(password, salt, params, cred.Hash)
	if err != nil {
		return nil, g.authFailed(ctx, "Failed to verify password hash", err)
	}

	// 4. Неверный пароль: увеличиваем счетчик
	if !match {
		return nil, g.registerFailure(ctx, status.Attempts+1)
	}

	// 5. Успех: сбрасываем счетчик и открываем сессию
	if err := g.store.DeleteFailedAttempts(ctx); err != nil {
		return nil, g.authFailed(ctx, "Failed to clear failed attempts", err)
	}

	token, err := crypto.GenerateToken()
	if err != nil {
		return nil, g.authFailed(ctx, "Failed to generate session token", err)
	}

	now := g.now()
	session := &models.Session{
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(g.opts.SessionTimeout),
	}
	if err := g.store.SaveSession(ctx, session); err != nil {
		return nil, g.authFailed(ctx, "Failed to save session", err)
	}

	g.logger.InfoContext(ctx, "Admin authenticated",
		slog.Time("expires_at", session.ExpiresAt))

	return &VerifyResult{
		Success:   true,
		Token:     token,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// registerFailure сохраняет новое число неудачных попыток и формирует ошибку
func (g *Gate) registerFailure(ctx context.Context, attempts int) error {
	record := &models.FailedAttempts{Attempts: attempts}

	locked := attempts >= g.opts.MaxFailedAttempts
	if locked {
		until := g.now().Add(g.opts.LockoutDuration)
		record.LockoutUntil = &until
	}

	if err := g.store.SaveFailedAttempts(ctx, record); err != nil {
		return g.authFailed(ctx, "Failed to save failed attempts", err)
	}

	if locked {
		g.logger.WarnContext(ctx, "Too many failed attempts, admin locked out",
			slog.Int("attempts", attempts),
			slog.Time("lockout_until", *record.LockoutUntil))
		return newLockoutError(ErrTooManyAttempts, g.opts.LockoutDuration)
	}

	g.logger.WarnContext(ctx, "Invalid admin password",
		slog.Int("attempts", attempts))

	return &InvalidPasswordError{RemainingAttempts: g.opts.MaxFailedAttempts - attempts}
}

func (g *Gate) authFailed(ctx context.Context, msg string, err error) error {
	g.logger.ErrorContext(ctx, msg, slog.Any("error", err))
	return fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
}

// GetLockoutStatus reports the current lockout state.
// An expired lockout is removed together with its attempt counter.
func (g *Gate) GetLockoutStatus(ctx context.Context) (models.LockoutStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.lockoutStatus(ctx)
}

// lockoutStatus вызывается под mu
func (g *Gate) lockoutStatus(ctx context.Context) (models.LockoutStatus, error) {
	record, err := g.store.GetFailedAttempts(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAttemptsNotFound) {
			return models.LockoutStatus{}, nil
		}
		return models.LockoutStatus{}, fmt.Errorf("failed to read failed attempts: %w", err)
	}

	if record.LockoutUntil == nil {
		return models.LockoutStatus{Attempts: record.Attempts}, nil
	}

	now := g.now()
	if record.IsLockedAt(now) {
		return models.LockoutStatus{
			IsLocked:      true,
			RemainingTime: record.LockoutUntil.Sub(now),
			Attempts:      record.Attempts,
		}, nil
	}

	// Блокировка истекла: удаляем запись, счетчик начинается заново
	if err := g.store.DeleteFailedAttempts(ctx); err != nil {
		return models.LockoutStatus{}, fmt.Errorf("failed to clear expired lockout: %w", err)
	}

	g.logger.InfoContext(ctx, "Lockout expired")

	return models.LockoutStatus{}, nil
}

// activeSession возвращает действующую сессию, удаляя истекшую. Вызывается под mu.
func (g *Gate) activeSession(ctx context.Context) (*models.Session, bool) {
	session, err := g.store.GetSession(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrSessionNotFound) {
			g.logger.WarnContext(ctx, "Failed to read session",
				slog.Any("error", err))
		}
		return nil, false
	}

	if !session.IsValidAt(g.now()) {
		if err := g.store.DeleteSession(ctx); err != nil {
			g.logger.WarnContext(ctx, "Failed to delete expired session",
				slog.Any("error", err))
		}
		return nil, false
	}

	return session, true
}

// IsSessionValid reports whether a non-expired session exists.
// An expired session is deleted. Returns false on storage errors.
func (g *Gate) IsSessionValid(ctx context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.activeSession(ctx)
	return ok
}

// ValidateSessionToken is IsSessionValid plus a constant-time comparison
// of token with the stored session token.
func (g *Gate) ValidateSessionToken(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	session, ok := g.activeSession(ctx)
	if !ok {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(session.Token), []byte(token)) == 1
}

// SessionInfo returns the active session or ErrNoSession
func (g *Gate) SessionInfo(ctx context.Context) (*models.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	session, ok := g.activeSession(ctx)
	if !ok {
		return nil, ErrNoSession
	}
	return session, nil
}

// ExtendSession moves the session expiry to now + SessionTimeout.
// Returns false if there is no active session or the write fails.
func (g *Gate) ExtendSession(ctx context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	session, ok := g.activeSession(ctx)
	if !ok {
		return false
	}

	session.ExpiresAt = g.now().Add(g.opts.SessionTimeout)
	if err := g.store.SaveSession(ctx, session); err != nil {
		g.logger.WarnContext(ctx, "Failed to extend session",
			slog.Any("error", err))
		return false
	}

	return true
}

// Logout deletes the session. Returns false only if the delete fails.
func (g *Gate) Logout(ctx context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.logout(ctx)
}

func (g *Gate) logout(ctx context.Context) bool {
	if err := g.store.DeleteSession(ctx); err != nil {
		g.logger.WarnContext(ctx, "Failed to delete session",
			slog.Any("error", err))
		return false
	}
	return true
}

// ChangePassword verifies currentPassword (consuming an attempt on failure),
// stores a new salt and hash, then ends the session.
func (g *Gate) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	if err := validation.ValidatePassword(newPassword, g.opts.MinPasswordLength); err != nil {
		return fmt.Errorf("%w: %w", ErrWeakPassword, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, err := g.verify(ctx, currentPassword); err != nil {
		return err
	}

	old, err := g.store.GetCredential(ctx)
	if err != nil {
		return g.authFailed(ctx, "Failed to read admin credential", err)
	}

	cred, err := g.newCredential(newPassword)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSetupFailed, err)
	}
	cred.ID = old.ID
	cred.CreatedAt = old.CreatedAt
	cred.UpdatedAt = g.now()

	if err := g.store.SaveCredential(ctx, cred); err != nil {
		g.logger.ErrorContext(ctx, "Failed to save new admin credential",
			slog.Any("error", err))
		return fmt.Errorf("%w: %w", ErrSetupFailed, err)
	}

	g.logout(ctx)

	g.logger.InfoContext(ctx, "Admin password changed")

	return nil
}

// ResetAuthData deletes credential, session and failed attempts together.
func (g *Gate) ResetAuthData(ctx context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.store.ResetAuth(ctx); err != nil {
		g.logger.ErrorContext(ctx, "Failed to reset auth data",
			slog.Any("error", err))
		return false
	}

	g.logger.WarnContext(ctx, "Auth data reset")

	return true
}
