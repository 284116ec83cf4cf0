package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func TestGenerateToken(t *testing.T) {
	t.Run("produces unique hex tokens", func(t *testing.T) {
		a, err := GenerateToken()
		require.NoError(t, err)
		b, err := GenerateToken()
		require.NoError(t, err)

		assert.Len(t, a, 64)
		assert.NotEqual(t, a, b)
	})
}

func TestHashToken(t *testing.T) {
	t.Run("is deterministic and distinct from the input", func(t *testing.T) {
		h := HashToken("some-token")
		assert.Equal(t, h, HashToken("some-token"))
		assert.NotEqual(t, "some-token", h)
		assert.Len(t, h, 64)
	})
}

func TestEncryptDecrypt(t *testing.T) {
	t.Run("round trips plaintext", func(t *testing.T) {
		encrypted, err := Encrypt(testKey, "bearer-token-value")
		require.NoError(t, err)
		assert.NotEqual(t, "bearer-token-value", encrypted)

		decrypted, err := Decrypt(testKey, encrypted)
		require.NoError(t, err)
		assert.Equal(t, "bearer-token-value", decrypted)
	})

	t.Run("rejects short key", func(t *testing.T) {
		_, err := Encrypt("abcd", "value")
		assert.Error(t, err)
	})

	t.Run("rejects tampered ciphertext", func(t *testing.T) {
		encrypted, err := Encrypt(testKey, "value")
		require.NoError(t, err)

		tampered := strings.Replace(encrypted, encrypted[:2], "zz", 1)
		_, err = Decrypt(testKey, tampered)
		assert.Error(t, err)
	})
}
