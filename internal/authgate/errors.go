package authgate

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrWeakPassword пароль пустой или короче минимальной длины
	ErrWeakPassword = errors.New("weak password")

	// ErrSetupFailed не удалось сохранить учетные данные
	ErrSetupFailed = errors.New("password setup failed")

	// ErrNotSetUp администратор еще не настроен
	ErrNotSetUp = errors.New("admin password is not set up")

	// ErrInvalidPassword неверный пароль; подробности в *InvalidPasswordError
	ErrInvalidPassword = errors.New("invalid password")

	// ErrTooManyAttempts последняя неудачная попытка включила блокировку
	ErrTooManyAttempts = errors.New("too many failed attempts")

	// ErrLockedOut проверка пароля отклонена из-за действующей блокировки
	ErrLockedOut = errors.New("locked out")

	// ErrAuthenticationFailed неожиданная ошибка хранилища во время проверки пароля
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrNoSession нет действующей сессии
	ErrNoSession = errors.New("no active session")
)

// InvalidPasswordError is returned for a wrong password that did not trigger a lockout
type InvalidPasswordError struct {
	RemainingAttempts int
}

func (e *InvalidPasswordError) Error() string {
	return fmt.Sprintf("invalid password, %d attempts remaining", e.RemainingAttempts)
}

func (e *InvalidPasswordError) Unwrap() error {
	return ErrInvalidPassword
}

// LockoutError is returned when verification is refused because of a lockout.
// Err is either ErrTooManyAttempts (this attempt started the lockout) or ErrLockedOut.
type LockoutError struct {
	Err              error
	Remaining        time.Duration
	RemainingMinutes int
}

func newLockoutError(err error, remaining time.Duration) *LockoutError {
	return &LockoutError{
		Err:              err,
		Remaining:        remaining,
		RemainingMinutes: ceilMinutes(remaining),
	}
}

func (e *LockoutError) Error() string {
	if errors.Is(e.Err, ErrTooManyAttempts) {
		return fmt.Sprintf("too many failed attempts, locked out for %d minutes", e.RemainingMinutes)
	}
	return fmt.Sprintf("locked out, try again in %d minutes", e.RemainingMinutes)
}

func (e *LockoutError) Unwrap() error {
	return e.Err
}

// ceilMinutes округляет оставшееся время в миллисекундах вверх до минут
func ceilMinutes(d time.Duration) int {
	return int(math.Ceil(float64(d.Milliseconds()) / 60000))
}
