package encryption

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsEmptySecret(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestEncryptDecrypt_RoundTrips(t *testing.T) {
	enc, err := New([]byte("a sufficiently secret master key"))
	require.NoError(t, err)

	blob, err := enc.EncryptToken("ya29.refresh-token-value")
	require.NoError(t, err)
	assert.NotEqual(t, "ya29.refresh-token-value", blob, "ciphertext must not equal the plaintext")

	plain, err := enc.DecryptToken(blob)
	require.NoError(t, err)
	assert.Equal(t, "ya29.refresh-token-value", plain)
}

func TestEncrypt_SameInputProducesDifferentCiphertext(t *testing.T) {
	enc, err := New([]byte("a sufficiently secret master key"))
	require.NoError(t, err)

	first, err := enc.EncryptToken("same-token")
	require.NoError(t, err)
	second, err := enc.EncryptToken("same-token")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "a fresh random nonce must make every encryption unique")
}

func TestDecrypt_RejectsTamperedCiphertext(t *testing.T) {
	enc, err := New([]byte("a sufficiently secret master key"))
	require.NoError(t, err)

	blob, err := enc.EncryptToken("token")
	require.NoError(t, err)

	tampered := blob[:len(blob)-2] + "zz"
	_, err = enc.DecryptToken(tampered)
	assert.Error(t, err)
}
