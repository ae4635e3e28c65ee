package envelope

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arkadym/sealbox/internal/common"
)

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	key := NewFileKey()

	cases := [][]byte{
		nil,
		[]byte("x"),
		[]byte("a modest file body"),
		common.GenerateRandByteArray(64 * 1024),
	}
	for _, plaintext := range cases {
		nonce, ciphertext, err := Encrypt(plaintext, key)
		require.NoError(t, err)
		require.Len(t, nonce, NonceSize)

		got, err := Decrypt(ciphertext, nonce, key)
		require.NoError(t, err)
		require.Equal(t, len(plaintext), len(got))
		require.True(t, bytes.Equal(plaintext, got))
	}
}

func TestEncrypt_FreshNoncePerCall(t *testing.T) {
	key := NewFileKey()
	n1, _, err := Encrypt([]byte("same bytes"), key)
	require.NoError(t, err)
	n2, _, err := Encrypt([]byte("same bytes"), key)
	require.NoError(t, err)
	require.NotEqual(t, n1, n2)
}

func TestDecrypt_TamperAndWrongKey(t *testing.T) {
	key := NewFileKey()
	nonce, ciphertext, err := Encrypt([]byte("contract.pdf contents"), key)
	require.NoError(t, err)

	// every single-bit flip must fail authentication
	for _, i := range []int{0, len(ciphertext) / 2, len(ciphertext) - 1} {
		mutated := make([]byte, len(ciphertext))
		copy(mutated, ciphertext)
		mutated[i] ^= 0x01
		_, err := Decrypt(mutated, nonce, key)
		require.True(t, errors.Is(err, common.ErrAuthentication), "flip at %d must fail", i)
	}

	_, err = Decrypt(ciphertext, nonce, NewFileKey())
	require.True(t, errors.Is(err, common.ErrAuthentication))

	wrongNonce := common.GenerateRandByteArray(NonceSize)
	_, err = Decrypt(ciphertext, wrongNonce, key)
	require.True(t, errors.Is(err, common.ErrAuthentication))

	_, err = Decrypt(ciphertext, nonce[:10], key)
	require.True(t, errors.Is(err, common.ErrAuthentication))
}

func TestDecrypt_BadKeyLength(t *testing.T) {
	_, err := Decrypt([]byte("ct"), make([]byte, NonceSize), []byte("short-key"))
	require.True(t, errors.Is(err, common.ErrValidation))
}
