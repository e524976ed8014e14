// Package encryption provides at-rest AES-256-GCM encryption for stored
// OAuth tokens, adapted from the teacher's now-removed
// internal/social/encryption.go.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// TokenEncryption encrypts/decrypts token strings with a single
// process-wide AES-256 key (spec §6's ENCRYPTION_KEY), derived via HKDF
// so the raw configured secret is never used as a block cipher key
// directly.
type TokenEncryption struct {
	key []byte
}

// New derives a 32-byte AES-256 key from masterSecret via HKDF-SHA256.
// masterSecret may be any non-empty length — it is key material, not the
// cipher key itself.
func New(masterSecret []byte) (*TokenEncryption, error) {
	if len(masterSecret) == 0 {
		return nil, fmt.Errorf("encryption: master secret must not be empty")
	}

	derived := make([]byte, 32)
	kdf := hkdf.New(sha256.New, masterSecret, nil, []byte("social-publisher/token-encryption"))
	if _, err := io.ReadFull(kdf, derived); err != nil {
		return nil, fmt.Errorf("encryption: derive key: %w", err)
	}
	return &TokenEncryption{key: derived}, nil
}

// Encrypt returns a base64-encoded nonce||ciphertext blob.
func (t *TokenEncryption) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(t.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt.
func (t *TokenEncryption) Decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(t.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(raw) < nonceSize {
		return "", errors.New("encryption: ciphertext too short")
	}

	nonce, ciphertext := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// EncryptToken and DecryptToken are thin, explicitly-named wrappers used
// at the Account Registry's persistence boundary so call sites read as
// "encrypt this token field", not generic string encryption.
func (t *TokenEncryption) EncryptToken(token string) (string, error) { return t.Encrypt(token) }
func (t *TokenEncryption) DecryptToken(blob string) (string, error)  { return t.Decrypt(blob) }
