package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const (
	// SaltSize - размер соли в байтах
	SaltSize = 32
	// TokenSize - размер случайной части токена сессии в байтах
	TokenSize = 32
)

// GenerateSalt генерирует криптографически случайную соль указанного размера
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	_, err := rand.Read(salt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// GenerateSaltBase64 генерирует криптографически случайную соль и возвращает ее в Base64
func GenerateSaltBase64() (string, error) {
	salt, err := GenerateSalt()
	if err != nil {
		return "", err
	}
	return EncodeSalt(salt), nil
}

// EncodeSalt кодирует соль в Base64 для хранения
func EncodeSalt(salt []byte) string {
	return base64.StdEncoding.EncodeToString(salt)
}

// DecodeSalt декодирует соль из Base64 и проверяет ее размер
func DecodeSalt(saltBase64 string) ([]byte, error) {
	salt, err := base64.StdEncoding.DecodeString(saltBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("salt must be %d bytes, got %d", SaltSize, len(salt))
	}
	return salt, nil
}

// GenerateToken создает непрозрачный случайный токен сессии (base64url, без padding)
func GenerateToken() (string, error) {
	tokenBytes := make([]byte, TokenSize)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(tokenBytes), nil
}
