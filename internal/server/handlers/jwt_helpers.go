package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenIssuer значение iss в выдаваемых токенах
const tokenIssuer = "matswap"

// SessionClaims представляет JWT claims, несущие токен сессии auth gate.
// Срок JWT ограничивает только сам JWT: действительность сессии проверяет gate.
type SessionClaims struct {
	SessionToken string `json:"sid"`
	jwt.RegisteredClaims
}

// JWTConfig содержит конфигурацию для JWT
type JWTConfig struct {
	Secret   []byte
	TokenTTL time.Duration
}

// GenerateSessionJWT создает подписанный JWT для токена сессии.
// Возвращает токен и время жизни в секундах.
func GenerateSessionJWT(cfg JWTConfig, sessionToken string) (string, int64, error) {
	now := time.Now()

	claims := SessionClaims{
		SessionToken: sessionToken,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(cfg.Secret)
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, int64(cfg.TokenTTL.Seconds()), nil
}

// ValidateSessionJWT валидирует JWT и возвращает его claims
func ValidateSessionJWT(cfg JWTConfig, tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (any, error) {
		// Проверяем что используется правильный алгоритм подписи
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return cfg.Secret, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.SessionToken == "" {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}

// contextKey тип для ключей контекста
type contextKey string

// SessionTokenKey ключ для хранения токена сессии в контексте
const SessionTokenKey contextKey = "session_token"

// WithSessionToken добавляет токен сессии в контекст
func WithSessionToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, SessionTokenKey, token)
}

// GetSessionToken извлекает токен сессии из контекста запроса
func GetSessionToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(SessionTokenKey).(string)
	return token, ok && token != ""
}
