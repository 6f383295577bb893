// Package crypto provides reversible field-level encryption for credential
// storage and generation of opaque webhook tokens.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength = 64
	ivLength   = 16
	keyLength  = 32
	iterations = 100000

	// TokenBytes is the entropy of a generated webhook token.
	TokenBytes = 32
)

// ErrInvalidCiphertext is returned when decrypting malformed input.
var ErrInvalidCiphertext = errors.New("invalid ciphertext")

// ErrKeyTooShort is returned when the master key has insufficient length.
var ErrKeyTooShort = errors.New("encryption key must be at least 32 characters")

// Cipher encrypts and decrypts strings with AES-256-GCM. Each value gets a
// fresh random salt, so the derived key differs per value.
type Cipher struct {
	masterKey []byte
}

// NewCipher creates a Cipher from the master key. Keys shorter than 32
// characters are rejected; there is no default key.
func NewCipher(masterKey string) (*Cipher, error) {
	if len(masterKey) < keyLength {
		return nil, ErrKeyTooShort
	}
	return &Cipher{masterKey: []byte(masterKey)}, nil
}

func (c *Cipher) deriveKey(salt []byte) []byte {
	return pbkdf2.Key(c.masterKey, salt, iterations, keyLength, sha256.New)
}

// Encrypt encrypts plaintext and returns base64(salt || iv || ciphertext+tag).
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	iv := make([]byte, ivLength)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to generate iv: %w", err)
	}

	block, err := aes.NewCipher(c.deriveKey(salt))
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, ivLength)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)

	buf := make([]byte, 0, saltLength+ivLength+len(sealed))
	buf = append(buf, salt...)
	buf = append(buf, iv...)
	buf = append(buf, sealed...)
	return base64.StdEncoding.EncodeToString(buf), nil
}

// Decrypt reverses Encrypt.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	buf, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}
	if len(buf) < saltLength+ivLength+1 {
		return "", ErrInvalidCiphertext
	}

	salt := buf[:saltLength]
	iv := buf[saltLength : saltLength+ivLength]
	sealed := buf[saltLength+ivLength:]

	block, err := aes.NewCipher(c.deriveKey(salt))
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, ivLength)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	plaintext, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}
	return string(plaintext), nil
}

// GenerateWebhookToken returns a hex-encoded token with TokenBytes of entropy.
func GenerateWebhookToken() (string, error) {
	raw := make([]byte, TokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(raw), nil
}
