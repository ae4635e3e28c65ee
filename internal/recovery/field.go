package recovery

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/arkadym/sealbox/internal/common"
)

// fieldSeparator delimits the IV from the ciphertext in the stored form.
const fieldSeparator = ":"

// EncryptField seals a single vault field under a wrapping key with AES-GCM
// and a fresh random IV. Stored form: base64(iv) ":" base64(ciphertext).
func EncryptField(plaintext, key []byte) (string, error) {
	aead, err := newGCM(key)
	if err != nil {
		return "", err
	}
	iv := common.GenerateRandByteArray(aead.NonceSize())
	ct := aead.Seal(nil, iv, plaintext, nil)
	return base64.StdEncoding.EncodeToString(iv) + fieldSeparator +
		base64.StdEncoding.EncodeToString(ct), nil
}

// DecryptField reverses EncryptField. Malformed input, a wrong key, or any
// tamper yields common.ErrAuthentication.
func DecryptField(encoded string, key []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	parts := strings.SplitN(encoded, fieldSeparator, 2)
	if len(parts) != 2 {
		return nil, common.ErrAuthentication
	}
	iv, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil || len(iv) != aead.NonceSize() {
		return nil, common.ErrAuthentication
	}
	ct, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, common.ErrAuthentication
	}
	plaintext, err := aead.Open(nil, iv, ct, nil)
	if err != nil {
		return nil, common.ErrAuthentication
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: bad wrapping key: %v", common.ErrValidation, err)
	}
	return cipher.NewGCM(block)
}
