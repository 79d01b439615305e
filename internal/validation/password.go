package validation

import (
	"fmt"
	"unicode/utf8"
)

// DefaultMinPasswordLen минимальная длина пароля администратора
const DefaultMinPasswordLen = 6

// ValidatePassword проверяет минимальные требования к паролю администратора.
// Длина считается в символах, а не в байтах.
func ValidatePassword(password string, minLen int) error {
	if minLen <= 0 {
		minLen = DefaultMinPasswordLen
	}

	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	if utf8.RuneCountInString(password) < minLen {
		return fmt.Errorf("password must be at least %d characters long", minLen)
	}

	return nil
}
