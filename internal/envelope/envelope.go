// Package envelope encrypts file contents with a per-file symmetric key
// using XChaCha20-Poly1305. The 24-byte nonce travels out-of-band (the
// X-Nonce header); the ciphertext is the transfer body.
package envelope

import (
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/arkadym/sealbox/internal/common"
)

// KeySize is the required file-key length.
const KeySize = chacha20poly1305.KeySize

// NonceSize is the length of the random per-file nonce.
const NonceSize = chacha20poly1305.NonceSizeX

// NewFileKey returns a fresh random file key.
func NewFileKey() []byte {
	return common.GenerateRandByteArray(KeySize)
}

// Encrypt seals plaintext under fileKey with a fresh random nonce.
// The nonce is returned separately and must accompany the ciphertext.
func Encrypt(plaintext, fileKey []byte) (nonce, ciphertext []byte, err error) {
	aead, err := chacha20poly1305.NewX(fileKey)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: bad file key: %v", common.ErrValidation, err)
	}
	nonce = common.GenerateRandByteArray(NonceSize)
	ciphertext = aead.Seal(nil, nonce, plaintext, nil)
	return nonce, ciphertext, nil
}

// Decrypt opens ciphertext sealed by Encrypt. Any bit flip, wrong key or
// wrong nonce yields common.ErrAuthentication and no plaintext at all.
func Decrypt(ciphertext, nonce, fileKey []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(fileKey)
	if err != nil {
		return nil, fmt.Errorf("%w: bad file key: %v", common.ErrValidation, err)
	}
	if len(nonce) != NonceSize {
		return nil, common.ErrAuthentication
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, common.ErrAuthentication
	}
	return plaintext, nil
}
