// Package vault implements the isolated custodian of private key bundles:
// a BadgerDB-backed store sealed at rest under a vault master key, exposed
// only through a bearer-authenticated HTTP boundary.
package vault

import "fmt"

// PrivateKeyBundle is the private half of an identity. It never leaves the
// vault boundary except through an authenticated retrieve for its owner.
type PrivateKeyBundle struct {
	// EncryptedID is the opaque owner reference used as the storage address.
	EncryptedID string `json:"encrypted_id"`
	// IKPrivate is the identity private key (base64 raw X25519).
	IKPrivate string `json:"ik_private_key"`
	// SPKPrivate is the signed prekey private key.
	SPKPrivate string `json:"spk_private_key"`
	// OPKsPrivate are the one-time prekey private halves, index-aligned
	// with the public set the API server persists.
	OPKsPrivate []string `json:"opks_private"`
}

// Validate checks the presence of every required field.
func (b *PrivateKeyBundle) Validate() error {
	switch {
	case b.EncryptedID == "":
		return fmt.Errorf("encrypted_id is required")
	case b.IKPrivate == "":
		return fmt.Errorf("ik_private_key is required")
	case b.SPKPrivate == "":
		return fmt.Errorf("spk_private_key is required")
	case b.OPKsPrivate == nil:
		return fmt.Errorf("opks_private must be a list")
	}
	return nil
}
