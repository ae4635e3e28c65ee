package x3dh

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arkadym/sealbox/internal/common"
	"github.com/arkadym/sealbox/internal/keycodec"
)

type party struct {
	ik      *keycodec.KeyPair
	spk     *keycodec.KeyPair
	opk     *keycodec.KeyPair
	signPub []byte
	spkSig  []byte
}

func newParty(t *testing.T) *party {
	t.Helper()
	ik, err := keycodec.GenerateX25519()
	require.NoError(t, err)
	spk, err := keycodec.GenerateX25519()
	require.NoError(t, err)
	opk, err := keycodec.GenerateX25519()
	require.NoError(t, err)
	signPub, signPriv, err := keycodec.GenerateSigningKey()
	require.NoError(t, err)
	return &party{
		ik:      ik,
		spk:     spk,
		opk:     opk,
		signPub: signPub,
		spkSig:  keycodec.SignPrekey(signPriv, spk.Public),
	}
}

func (p *party) bundle(withOPK bool) *ResponderBundle {
	b := &ResponderBundle{
		IKPublic:      p.ik.Public,
		SigningPublic: p.signPub,
		SPKPublic:     p.spk.Public,
		SPKSignature:  p.spkSig,
	}
	if withOPK {
		b.OPKPublic = p.opk.Public
	}
	return b
}

func TestBothSidesDeriveSameSecret(t *testing.T) {
	alice := newParty(t)
	bob := newParty(t)
	ek, err := keycodec.GenerateX25519()
	require.NoError(t, err)

	initiator, err := InitiatorSecret(alice.ik.Private, ek.Private, bob.bundle(true))
	require.NoError(t, err)

	responder, err := ResponderSecret(bob.ik.Private, bob.spk.Private, bob.opk.Private, alice.ik.Public, ek.Public)
	require.NoError(t, err)

	require.Equal(t, initiator, responder)
	require.Len(t, initiator, SecretSize)
}

func TestDegradedPathWithoutOPK(t *testing.T) {
	alice := newParty(t)
	bob := newParty(t)
	ek, err := keycodec.GenerateX25519()
	require.NoError(t, err)

	initiator, err := InitiatorSecret(alice.ik.Private, ek.Private, bob.bundle(false))
	require.NoError(t, err)

	responder, err := ResponderSecret(bob.ik.Private, bob.spk.Private, nil, alice.ik.Public, ek.Public)
	require.NoError(t, err)
	require.Equal(t, initiator, responder)

	// with vs without OPK must diverge
	withOPK, err := InitiatorSecret(alice.ik.Private, ek.Private, bob.bundle(true))
	require.NoError(t, err)
	require.NotEqual(t, initiator, withOPK)
}

func TestInitiatorSecret_RejectsForgedSignature(t *testing.T) {
	alice := newParty(t)
	bob := newParty(t)
	ek, err := keycodec.GenerateX25519()
	require.NoError(t, err)

	b := bob.bundle(true)
	forged := make([]byte, len(b.SPKSignature))
	copy(forged, b.SPKSignature)
	forged[10] ^= 0xff
	b.SPKSignature = forged

	_, err = InitiatorSecret(alice.ik.Private, ek.Private, b)
	require.True(t, errors.Is(err, common.ErrAuthentication))
}

func TestInitiatorSecret_RejectsSwappedSPK(t *testing.T) {
	alice := newParty(t)
	bob := newParty(t)
	mallory := newParty(t)
	ek, err := keycodec.GenerateX25519()
	require.NoError(t, err)

	// a server substituting its own prekey must be caught by the signature
	b := bob.bundle(true)
	b.SPKPublic = mallory.spk.Public

	_, err = InitiatorSecret(alice.ik.Private, ek.Private, b)
	require.True(t, errors.Is(err, common.ErrAuthentication))
}

func TestWrapUnwrapKey(t *testing.T) {
	secret := common.GenerateRandByteArray(SecretSize)
	fileKey := common.GenerateRandByteArray(32)

	wrapped, err := WrapKey(secret, fileKey)
	require.NoError(t, err)

	got, err := UnwrapKey(secret, wrapped)
	require.NoError(t, err)
	require.Equal(t, fileKey, got)
}

func TestUnwrapKey_WrongSecretOrTamper(t *testing.T) {
	secret := common.GenerateRandByteArray(SecretSize)
	wrapped, err := WrapKey(secret, common.GenerateRandByteArray(32))
	require.NoError(t, err)

	_, err = UnwrapKey(common.GenerateRandByteArray(SecretSize), wrapped)
	require.True(t, errors.Is(err, common.ErrAuthentication))

	wrapped[len(wrapped)-1] ^= 0x01
	_, err = UnwrapKey(secret, wrapped)
	require.True(t, errors.Is(err, common.ErrAuthentication))

	_, err = UnwrapKey(secret, []byte("short"))
	require.True(t, errors.Is(err, common.ErrAuthentication))
}

func TestWrapKey_FreshNoncePerCall(t *testing.T) {
	secret := common.GenerateRandByteArray(SecretSize)
	fileKey := common.GenerateRandByteArray(32)

	a, err := WrapKey(secret, fileKey)
	require.NoError(t, err)
	b, err := WrapKey(secret, fileKey)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}
