package api

import "time"

// SetupRequest представляет запрос на первичную настройку пароля администратора
type SetupRequest struct {
	Password string `json:"password" validate:"required"`
}

// LoginRequest представляет запрос на вход администратора
type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}

// LoginResponse представляет ответ на успешный вход
type LoginResponse struct {
	SessionExpiresAt time.Time `json:"session_expires_at"` // когда истечет сессия без продления
	AccessToken      string    `json:"access_token"`       // JWT, несущий токен сессии
	TokenType        string    `json:"token_type"`         // всегда "Bearer"
	ExpiresIn        int64     `json:"expires_in"`         // время жизни JWT в секундах
}

// ChangePasswordRequest представляет запрос на смену пароля
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// SessionResponse представляет состояние текущей сессии
type SessionResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
	Active    bool      `json:"active"`
}

// AuthStatusResponse представляет состояние auth gate
type AuthStatusResponse struct {
	SessionExpiresAt *time.Time `json:"session_expires_at,omitempty"`
	Attempts         int        `json:"attempts"`                    // неудачные попытки подряд
	RemainingSeconds int64      `json:"remaining_seconds,omitempty"` // до снятия блокировки
	RemainingMinutes int        `json:"remaining_minutes,omitempty"` // то же, округлено вверх
	SetUp            bool       `json:"set_up"`
	Locked           bool       `json:"locked"`
	SessionActive    bool       `json:"session_active"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	RemainingAttempts *int   `json:"remaining_attempts,omitempty"`  // для неверного пароля
	Error             string `json:"error"`                         // описание ошибки
	Message           string `json:"message,omitempty"`             // дополнительное сообщение
	RetryAfterSeconds int64  `json:"retry_after_seconds,omitempty"` // для блокировки
}
