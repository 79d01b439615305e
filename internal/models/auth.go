package models

import "time"

// AdminCredential хранит учетные данные единственного администратора установки.
// Наличие записи означает, что администратор настроен.
type AdminCredential struct {
	CreatedAt time.Time `json:"created_at"` // время первичной настройки
	UpdatedAt time.Time `json:"updated_at"` // время последней смены пароля
	ID        string    `json:"id"`         // UUID учетной записи (меняется при каждой настройке)
	Hash      string    `json:"hash"`       // hex-encoded argon2id хеш password+salt
	Salt      string    `json:"salt"`       // base64 encoded salt
	KDF       KDFParams `json:"kdf"`        // параметры KDF, с которыми был вычислен Hash
}

// KDFParams параметры argon2id, сохраняемые вместе с хешем
type KDFParams struct {
	Time    uint32 `json:"time"`
	Memory  uint32 `json:"memory"` // KB
	Threads uint8  `json:"threads"`
	KeyLen  uint32 `json:"key_len"`
}

// FailedAttempts счетчик подряд идущих неудачных проверок пароля.
// LockoutUntil появляется только когда Attempts достигает максимума.
type FailedAttempts struct {
	LockoutUntil *time.Time `json:"lockout_until,omitempty"`
	Attempts     int        `json:"attempts"`
}

// IsLockedAt сообщает, действует ли блокировка в момент now
func (f *FailedAttempts) IsLockedAt(now time.Time) bool {
	return f != nil && f.LockoutUntil != nil && now.Before(*f.LockoutUntil)
}

// Session подтверждение успешной аутентификации с ограниченным сроком жизни
type Session struct {
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Token     string    `json:"token"` // непрозрачный случайный токен, уникальный для каждого входа
}

// IsValidAt сообщает, действительна ли сессия в момент now
func (s *Session) IsValidAt(now time.Time) bool {
	return s != nil && now.Before(s.ExpiresAt)
}

// LockoutStatus результат проверки блокировки
type LockoutStatus struct {
	RemainingTime time.Duration `json:"remaining_time"` // сколько осталось до снятия блокировки
	Attempts      int           `json:"attempts"`       // текущее число неудачных попыток
	IsLocked      bool          `json:"is_locked"`
}
