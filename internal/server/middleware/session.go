package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/matswap/internal/server/handlers"
	"github.com/iudanet/matswap/pkg/api"
)

// SessionGate часть auth gate, нужная для проверки сессии
type SessionGate interface {
	ValidateSessionToken(ctx context.Context, token string) bool
	ExtendSession(ctx context.Context) bool
}

// SessionMiddleware создает middleware для проверки сессии администратора.
// JWT из заголовка Authorization несет токен сессии gate; действительность
// сессии решает gate. Успешный запрос продлевает сессию (sliding timeout).
func SessionMiddleware(logger *slog.Logger, jwtConfig handlers.JWTConfig, gate SessionGate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.WarnContext(ctx, "Missing Authorization header",
					slog.String("request_id", GetRequestID(ctx)))
				sendUnauthorized(w, "missing token")
				return
			}

			// Ожидаем формат: "Bearer <token>"
			scheme, tokenString, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || tokenString == "" {
				logger.WarnContext(ctx, "Invalid Authorization header format",
					slog.String("request_id", GetRequestID(ctx)))
				sendUnauthorized(w, "invalid token format")
				return
			}

			claims, err := handlers.ValidateSessionJWT(jwtConfig, tokenString)
			if err != nil {
				logger.WarnContext(ctx, "Invalid session token",
					slog.String("request_id", GetRequestID(ctx)),
					slog.Any("error", err))
				sendUnauthorized(w, "invalid token")
				return
			}

			if !gate.ValidateSessionToken(ctx, claims.SessionToken) {
				logger.InfoContext(ctx, "Session expired or revoked",
					slog.String("request_id", GetRequestID(ctx)))
				sendUnauthorized(w, "session expired")
				return
			}

			if !gate.ExtendSession(ctx) {
				logger.WarnContext(ctx, "Failed to extend session",
					slog.String("request_id", GetRequestID(ctx)))
			}

			next.ServeHTTP(w, r.WithContext(handlers.WithSessionToken(ctx, claims.SessionToken)))
		})
	}
}

func sendUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="matswap"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{
		Error:   http.StatusText(http.StatusUnauthorized),
		Message: message,
	})
}
