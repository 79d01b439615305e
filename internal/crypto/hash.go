package crypto

import (
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Params параметры Argon2id
type Params struct {
	// Time - количество итераций (time cost)
	Time uint32
	// Memory - объем памяти в KB
	Memory uint32
	// Threads - количество параллельных потоков
	Threads uint8
	// KeyLen - длина выходного дайджеста в байтах
	KeyLen uint32
}

// DefaultParams параметры по умолчанию (64MB, 1 итерация, 4 потока, 32 байта)
var DefaultParams = Params{
	Time:    1,
	Memory:  64 * 1024,
	Threads: 4,
	KeyLen:  32,
}

// Validate проверяет, что параметры пригодны для деривации
func (p Params) Validate() error {
	if p.Time == 0 {
		return fmt.Errorf("argon2 time cost must be positive")
	}
	if p.Memory < 8*uint32(p.Threads) {
		return fmt.Errorf("argon2 memory must be at least 8KB per thread")
	}
	if p.Threads == 0 {
		return fmt.Errorf("argon2 threads must be positive")
	}
	if p.KeyLen < 16 {
		return fmt.Errorf("argon2 key length must be at least 16 bytes, got %d", p.KeyLen)
	}
	return nil
}

// HashPassword вычисляет argon2id(password, salt) и возвращает hex-encoded дайджест
// фиксированной длины (2*KeyLen символов)
func HashPassword(password string, salt []byte, p Params) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	if len(salt) != SaltSize {
		return "", fmt.Errorf("salt must be %d bytes, got %d", SaltSize, len(salt))
	}
	if err := p.Validate(); err != nil {
		return "", err
	}

	digest := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)
	return hex.EncodeToString(digest), nil
}

// VerifyPassword проверяет пароль против сохраненного хеша.
// Сравнение выполняется за постоянное время. Пустой пароль всегда не совпадает.
func VerifyPassword(password string, salt []byte, p Params, hashed string) (bool, error) {
	if hashed == "" {
		return false, fmt.Errorf("hashed password cannot be empty")
	}
	// Пустой пароль не может совпасть: при настройке он отклоняется
	if password == "" {
		return false, nil
	}

	computed, err := HashPassword(password, salt, p)
	if err != nil {
		return false, fmt.Errorf("failed to compute password hash: %w", err)
	}

	return subtle.ConstantTimeCompare([]byte(computed), []byte(hashed)) == 1, nil
}
