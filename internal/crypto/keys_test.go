package crypto

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSalt(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)
	assert.Len(t, salt, SaltSize, "salt должен быть %d bytes", SaltSize)

	// Проверяем, что соль не состоит из одних нулей
	hasNonZero := false
	for _, b := range salt {
		if b != 0 {
			hasNonZero = true
			break
		}
	}
	assert.True(t, hasNonZero, "salt не должна состоять из одних нулей")

	other, err := GenerateSalt()
	require.NoError(t, err)
	assert.NotEqual(t, salt, other, "две соли не должны совпадать")
}

func TestGenerateSaltBase64_RoundTrip(t *testing.T) {
	saltBase64, err := GenerateSaltBase64()
	require.NoError(t, err)
	assert.NotEmpty(t, saltBase64)

	salt, err := DecodeSalt(saltBase64)
	require.NoError(t, err)
	assert.Len(t, salt, SaltSize)
}

func TestDecodeSalt_Errors(t *testing.T) {
	_, err := DecodeSalt("not base64 !!!")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode salt")

	short := base64.StdEncoding.EncodeToString([]byte("short"))
	_, err = DecodeSalt(short)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "salt must be 32 bytes")
}

func TestGenerateToken(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		token, err := GenerateToken()
		require.NoError(t, err)

		raw, err := base64.RawURLEncoding.DecodeString(token)
		require.NoError(t, err)
		assert.Len(t, raw, TokenSize)

		_, dup := seen[token]
		require.False(t, dup, "токены должны быть уникальными")
		seen[token] = struct{}{}
	}
}
