package handlers

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/iudanet/matswap/internal/authgate"
	"github.com/iudanet/matswap/internal/models"
	"github.com/iudanet/matswap/pkg/api"
)

// Gate определяет операции auth gate, используемые handlers
type Gate interface {
	IsSetUp(ctx context.Context) bool
	SetupPassword(ctx context.Context, password string) error
	VerifyPassword(ctx context.Context, password string) (*authgate.VerifyResult, error)
	GetLockoutStatus(ctx context.Context) (models.LockoutStatus, error)
	SessionInfo(ctx context.Context) (*models.Session, error)
	ExtendSession(ctx context.Context) bool
	Logout(ctx context.Context) bool
	ChangePassword(ctx context.Context, currentPassword, newPassword string) error
}

var _ Gate = (*authgate.Gate)(nil)

// AuthHandler обрабатывает запросы авторизации администратора
type AuthHandler struct {
	responder
	gate      Gate
	jwtConfig JWTConfig
}

// NewAuthHandler создает новый handler для авторизации
func NewAuthHandler(logger *slog.Logger, gate Gate, jwtConfig JWTConfig) *AuthHandler {
	return &AuthHandler{
		responder: newResponder(logger),
		gate:      gate,
		jwtConfig: jwtConfig,
	}
}

// Status обрабатывает GET /api/v1/auth/status
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status, err := h.gate.GetLockoutStatus(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read lockout status", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := api.AuthStatusResponse{
		SetUp:    h.gate.IsSetUp(ctx),
		Locked:   status.IsLocked,
		Attempts: status.Attempts,
	}
	if status.IsLocked {
		resp.RemainingSeconds = retryAfterSeconds(status)
		resp.RemainingMinutes = int(math.Ceil(status.RemainingTime.Minutes()))
	}

	if session, err := h.gate.SessionInfo(ctx); err == nil {
		resp.SessionActive = true
		resp.SessionExpiresAt = &session.ExpiresAt
	}

	h.sendJSON(w, resp, http.StatusOK)
}

// Setup обрабатывает POST /api/v1/auth/setup
// Повторная настройка через HTTP запрещена: для этого есть смена пароля.
func (h *AuthHandler) Setup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.SetupRequest
	if err := h.decode(w, r, &req); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if h.gate.IsSetUp(ctx) {
		h.logger.WarnContext(ctx, "setup rejected: admin already set up")
		h.sendError(w, "admin password is already set up", http.StatusConflict)
		return
	}

	if err := h.gate.SetupPassword(ctx, req.Password); err != nil {
		h.sendAuthError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// Login обрабатывает POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if err := h.decode(w, r, &req); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.gate.VerifyPassword(ctx, req.Password)
	if err != nil {
		h.sendAuthError(ctx, w, err)
		return
	}

	accessToken, expiresIn, err := GenerateSessionJWT(h.jwtConfig, result.Token)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate access token", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.sendJSON(w, api.LoginResponse{
		AccessToken:      accessToken,
		TokenType:        "Bearer",
		ExpiresIn:        expiresIn,
		SessionExpiresAt: result.ExpiresAt,
	}, http.StatusOK)
}

// Logout обрабатывает POST /api/v1/auth/logout (требует сессию)
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !h.gate.Logout(ctx) {
		h.sendError(w, "failed to end session", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "admin logged out")

	w.WriteHeader(http.StatusNoContent)
}

// Extend обрабатывает POST /api/v1/auth/extend (требует сессию)
func (h *AuthHandler) Extend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !h.gate.ExtendSession(ctx) {
		h.sendError(w, "no active session", http.StatusUnauthorized)
		return
	}

	session, err := h.gate.SessionInfo(ctx)
	if err != nil {
		h.sendError(w, "no active session", http.StatusUnauthorized)
		return
	}

	h.sendJSON(w, api.SessionResponse{Active: true, ExpiresAt: session.ExpiresAt}, http.StatusOK)
}

// ChangePassword обрабатывает POST /api/v1/auth/password (требует сессию).
// После смены пароля сессия завершается.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.ChangePasswordRequest
	if err := h.decode(w, r, &req); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.gate.ChangePassword(ctx, req.CurrentPassword, req.NewPassword); err != nil {
		h.sendAuthError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// sendAuthError переводит ошибки auth gate в HTTP ответы
func (h *AuthHandler) sendAuthError(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		invalid *authgate.InvalidPasswordError
		lockout *authgate.LockoutError
	)

	switch {
	case errors.Is(err, authgate.ErrWeakPassword):
		h.sendError(w, err.Error(), http.StatusBadRequest)

	case errors.Is(err, authgate.ErrNotSetUp):
		h.sendError(w, err.Error(), http.StatusConflict)

	case errors.As(err, &invalid):
		remaining := invalid.RemainingAttempts
		h.sendJSON(w, api.ErrorResponse{
			Error:             http.StatusText(http.StatusUnauthorized),
			Message:           err.Error(),
			RemainingAttempts: &remaining,
		}, http.StatusUnauthorized)

	case errors.As(err, &lockout):
		seconds := retryAfterSeconds(models.LockoutStatus{RemainingTime: lockout.Remaining})
		w.Header().Set("Retry-After", strconv.FormatInt(seconds, 10))
		h.sendJSON(w, api.ErrorResponse{
			Error:             http.StatusText(http.StatusTooManyRequests),
			Message:           err.Error(),
			RetryAfterSeconds: seconds,
		}, http.StatusTooManyRequests)

	default:
		h.logger.ErrorContext(ctx, "auth operation failed", slog.Any("error", err))
		h.sendError(w, "authentication failed", http.StatusInternalServerError)
	}
}

// retryAfterSeconds округляет оставшееся время блокировки вверх до секунд
func retryAfterSeconds(status models.LockoutStatus) int64 {
	return int64(math.Ceil(status.RemainingTime.Seconds()))
}
