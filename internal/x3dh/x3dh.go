// Package x3dh derives a shared secret between a share initiator and a
// responder from the responder's published prekey bundle, and uses that
// secret to wrap per-file symmetric keys.
//
// The secret is KDF(DH1 ‖ DH2 ‖ DH3 [‖ DH4]) where
//
//	DH1 = DH(IK_a,  SPK_b)
//	DH2 = DH(EK_a,  IK_b)
//	DH3 = DH(EK_a,  SPK_b)
//	DH4 = DH(EK_a,  OPK_b)   (only when a one-time prekey was issued)
//
// A bundle without an OPK still derives a valid secret; forward secrecy for
// that one exchange is weaker, and callers are expected to surface that to
// the user rather than fail.
package x3dh

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/arkadym/sealbox/internal/common"
	"github.com/arkadym/sealbox/internal/keycodec"
)

// SecretSize is the length of the derived shared secret.
const SecretSize = 32

const kdfInfo = "sealbox/x3dh/v1"

// ResponderBundle is the public bundle fetched for a responder before the
// first contact. OPKPublic is nil on the degraded (exhausted) path.
type ResponderBundle struct {
	IKPublic      []byte
	SigningPublic []byte
	SPKPublic     []byte
	SPKSignature  []byte
	OPKPublic     []byte
}

// InitiatorSecret derives the shared secret on the initiator side from the
// initiator's long-term identity private key, a fresh ephemeral private key,
// and the responder's bundle. The bundle's signed-prekey signature is
// verified first; tampering yields common.ErrAuthentication.
func InitiatorSecret(ikPriv, ekPriv []byte, bundle *ResponderBundle) ([]byte, error) {
	if err := keycodec.VerifyPrekeySignature(bundle.SigningPublic, bundle.SPKPublic, bundle.SPKSignature); err != nil {
		return nil, err
	}

	dh1, err := keycodec.SharedSecret(ikPriv, bundle.SPKPublic)
	if err != nil {
		return nil, err
	}
	dh2, err := keycodec.SharedSecret(ekPriv, bundle.IKPublic)
	if err != nil {
		return nil, err
	}
	dh3, err := keycodec.SharedSecret(ekPriv, bundle.SPKPublic)
	if err != nil {
		return nil, err
	}

	parts := [][]byte{dh1, dh2, dh3}
	if bundle.OPKPublic != nil {
		dh4, err := keycodec.SharedSecret(ekPriv, bundle.OPKPublic)
		if err != nil {
			return nil, err
		}
		parts = append(parts, dh4)
	}
	return deriveSecret(parts)
}

// ResponderSecret derives the same secret on the responder side from the
// responder's private bundle halves and the initiator's public keys carried
// in the share record. opkPriv must be nil exactly when the initiator used
// no one-time prekey.
func ResponderSecret(ikPriv, spkPriv, opkPriv, initiatorIKPub, initiatorEKPub []byte) ([]byte, error) {
	dh1, err := keycodec.SharedSecret(spkPriv, initiatorIKPub)
	if err != nil {
		return nil, err
	}
	dh2, err := keycodec.SharedSecret(ikPriv, initiatorEKPub)
	if err != nil {
		return nil, err
	}
	dh3, err := keycodec.SharedSecret(spkPriv, initiatorEKPub)
	if err != nil {
		return nil, err
	}

	parts := [][]byte{dh1, dh2, dh3}
	if opkPriv != nil {
		dh4, err := keycodec.SharedSecret(opkPriv, initiatorEKPub)
		if err != nil {
			return nil, err
		}
		parts = append(parts, dh4)
	}
	return deriveSecret(parts)
}

func deriveSecret(parts [][]byte) ([]byte, error) {
	ikm := make([]byte, 0, len(parts)*keycodec.KeySize)
	for _, p := range parts {
		ikm = append(ikm, p...)
	}
	defer common.WipeByteArray(ikm)

	secret := make([]byte, SecretSize)
	stream := hkdf.New(sha256.New, ikm, nil, []byte(kdfInfo))
	if _, err := io.ReadFull(stream, secret); err != nil {
		return nil, err
	}
	return secret, nil
}

// WrapKey seals a freshly generated file key under the derived secret.
// Layout: [24-byte nonce ‖ ciphertext]. The wrapped form is what the share
// record stores for the responder.
func WrapKey(secret, fileKey []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(secret)
	if err != nil {
		return nil, fmt.Errorf("%w: bad wrapping secret: %v", common.ErrValidation, err)
	}
	nonce := common.GenerateRandByteArray(chacha20poly1305.NonceSizeX)
	out := make([]byte, 0, len(nonce)+len(fileKey)+aead.Overhead())
	out = append(out, nonce...)
	return aead.Seal(out, nonce, fileKey, nil), nil
}

// UnwrapKey opens a wrapped file key. Any tamper or wrong secret yields
// common.ErrAuthentication, never a partial result.
func UnwrapKey(secret, wrapped []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(secret)
	if err != nil {
		return nil, fmt.Errorf("%w: bad wrapping secret: %v", common.ErrValidation, err)
	}
	if len(wrapped) < chacha20poly1305.NonceSizeX {
		return nil, common.ErrAuthentication
	}
	nonce := wrapped[:chacha20poly1305.NonceSizeX]
	key, err := aead.Open(nil, nonce, wrapped[chacha20poly1305.NonceSizeX:], nil)
	if err != nil {
		return nil, common.ErrAuthentication
	}
	return key, nil
}
