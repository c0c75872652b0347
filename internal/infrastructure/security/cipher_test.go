package security

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukoquique-proves/JavaFlow/internal/domain/errs"
)

func newTestCipher(t *testing.T) *AESCipher {
	t.Helper()
	key, err := GenerateKey()
	require.NoError(t, err)
	c, err := NewAESCipher(key)
	require.NoError(t, err)
	return c
}

func TestAESCipher_RoundTrip(t *testing.T) {
	c := newTestCipher(t)
	token := "123456:ABC-DEF1234ghIkl-zyx57W2v1u123ew11"

	first, err := c.Encrypt(token)
	require.NoError(t, err)
	second, err := c.Encrypt(token)
	require.NoError(t, err)

	assert.NotEqual(t, token, first)
	assert.NotContains(t, first, token)
	assert.NotEqual(t, first, second, "nonce must differ per call")

	plain, err := c.Decrypt(first)
	require.NoError(t, err)
	assert.Equal(t, token, plain)
}

func TestAESCipher_Failures(t *testing.T) {
	c := newTestCipher(t)
	other := newTestCipher(t)

	sealed, err := c.Encrypt("secret-token")
	require.NoError(t, err)

	tampered, _ := base64.StdEncoding.DecodeString(sealed)
	tampered[len(tampered)-1] ^= 0xff

	tests := []struct {
		name       string
		ciphertext string
	}{
		{"empty", ""},
		{"not base64", "%%%"},
		{"too short", base64.StdEncoding.EncodeToString([]byte("abc"))},
		{"tampered", base64.StdEncoding.EncodeToString(tampered)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Decrypt(tt.ciphertext)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errs.ErrDecryption))
			assert.True(t, errs.IsSecurity(err))
		})
	}

	t.Run("wrong key", func(t *testing.T) {
		_, err := other.Decrypt(sealed)
		assert.True(t, errors.Is(err, errs.ErrDecryption))
		assert.NotContains(t, err.Error(), "secret-token")
	})

	t.Run("empty plaintext", func(t *testing.T) {
		_, err := c.Encrypt("")
		assert.True(t, errors.Is(err, errs.ErrEncryption))
	})
}

func TestNewAESCipher_KeyValidation(t *testing.T) {
	_, err := NewAESCipher("not-base64!")
	assert.Error(t, err)

	_, err = NewAESCipher(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorContains(t, err, "must be 32 bytes")

	_, err = NewAESCipher(base64.StdEncoding.EncodeToString([]byte("12345678901234567890123456789012")))
	assert.NoError(t, err)
}
