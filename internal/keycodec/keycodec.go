// Package keycodec validates, encodes and decodes the key material that
// crosses process boundaries: X25519 key-agreement keys, Ed25519 signing
// keys, and signed-prekey signatures. All wire forms are standard base64.
package keycodec

import (
	"crypto/ecdh"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/arkadym/sealbox/internal/common"
)

// KeySize is the raw byte length of X25519 public and private keys.
const KeySize = 32

// KeyPair holds the raw halves of an X25519 key.
type KeyPair struct {
	Public  []byte
	Private []byte
}

// GenerateX25519 returns a fresh X25519 key pair in raw form.
func GenerateX25519() (*KeyPair, error) {
	priv, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &KeyPair{Public: priv.PublicKey().Bytes(), Private: priv.Bytes()}, nil
}

// GenerateSigningKey returns a fresh Ed25519 key pair used to sign prekeys.
func GenerateSigningKey() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	return ed25519.GenerateKey(rand.Reader)
}

// SharedSecret computes the X25519 Diffie-Hellman output for a raw private
// key and a raw peer public key.
func SharedSecret(rawPriv, rawPeerPub []byte) ([]byte, error) {
	curve := ecdh.X25519()
	priv, err := curve.NewPrivateKey(rawPriv)
	if err != nil {
		return nil, fmt.Errorf("%w: bad private key: %v", common.ErrValidation, err)
	}
	pub, err := curve.NewPublicKey(rawPeerPub)
	if err != nil {
		return nil, fmt.Errorf("%w: bad public key: %v", common.ErrValidation, err)
	}
	return priv.ECDH(pub)
}

// SignPrekey signs the raw signed-prekey public bytes with the identity
// signing key.
func SignPrekey(signingPriv ed25519.PrivateKey, spkPublic []byte) []byte {
	return ed25519.Sign(signingPriv, spkPublic)
}

// VerifyPrekeySignature checks that sig is a valid signature by signingPub
// over the raw signed-prekey public bytes. Any mismatch, including malformed
// inputs, yields common.ErrAuthentication with no further detail.
func VerifyPrekeySignature(signingPub, spkPublic, sig []byte) error {
	if len(signingPub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return common.ErrAuthentication
	}
	if !ed25519.Verify(ed25519.PublicKey(signingPub), spkPublic, sig) {
		return common.ErrAuthentication
	}
	return nil
}

// EncodeKey renders raw key bytes in the wire form.
func EncodeKey(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}

// DecodeKey parses a wire-form X25519 key and validates its length.
func DecodeKey(s string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: key is not valid base64", common.ErrValidation)
	}
	if len(raw) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", common.ErrValidation, KeySize, len(raw))
	}
	return raw, nil
}

// DecodeSigningKey parses a wire-form Ed25519 public key.
func DecodeSigningKey(s string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: signing key is not valid base64", common.ErrValidation)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: signing key must be %d bytes", common.ErrValidation, ed25519.PublicKeySize)
	}
	return raw, nil
}

// DecodeSignature parses a wire-form Ed25519 signature.
func DecodeSignature(s string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: signature is not valid base64", common.ErrValidation)
	}
	if len(raw) != ed25519.SignatureSize {
		return nil, fmt.Errorf("%w: signature must be %d bytes", common.ErrValidation, ed25519.SignatureSize)
	}
	return raw, nil
}
