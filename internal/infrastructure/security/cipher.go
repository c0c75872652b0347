// Package security provides the AES-256-GCM implementation of port.SecretCipher.
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/ukoquique-proves/JavaFlow/internal/application/port"
	"github.com/ukoquique-proves/JavaFlow/internal/domain/errs"
)

// KeySize is the AES-256 key length in bytes
const KeySize = 32

// AESCipher encrypts secrets with AES-256-GCM. Ciphertexts are base64 of nonce||sealed.
type AESCipher struct {
	gcm cipher.AEAD
}

// NewAESCipher creates a cipher from a base64-encoded 32-byte key
func NewAESCipher(encodedKey string) (*AESCipher, error) {
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("decode encryption key: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return &AESCipher{gcm: gcm}, nil
}

// GenerateKey returns a random base64-encoded key
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

func (c *AESCipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", errs.ErrEncryption.Withf("plaintext cannot be empty")
	}

	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errs.ErrEncryption.Wrap(fmt.Errorf("generate nonce: %w", err))
	}
	sealed := c.gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *AESCipher) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", errs.ErrDecryption.Withf("ciphertext cannot be empty")
	}

	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", errs.ErrDecryption.Wrap(fmt.Errorf("decode base64: %w", err))
	}
	nonceSize := c.gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errs.ErrDecryption.Wrap(errors.New("ciphertext too short"))
	}

	nonce, ct := data[:nonceSize], data[nonceSize:]
	plaintext, err := c.gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", errs.ErrDecryption.Wrap(err)
	}
	return string(plaintext), nil
}

var _ port.SecretCipher = (*AESCipher)(nil)
