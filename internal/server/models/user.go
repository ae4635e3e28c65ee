// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account with its published key material. Only public halves
// live here; the private counterparts exist solely in the vault.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string

	// Published bundle fields (base64 wire form).
	IKPublic        string
	IKSigningPublic string
	SPKPublic       string
	SPKSignature    string

	// Registration material the client needs back to rebuild its keys.
	Nonce string
	Salt  string

	// VaultRef is the opaque name of this user's vault record. Knowing a
	// ref is not authorization: every vault access checks it against the
	// caller's own row.
	VaultRef string

	// Recovery fields. RecoveryKeyEncrypted is sealed under the
	// mnemonic-derived wrapping key; RecoverySalt feeds that derivation.
	RecoveryKeyEncrypted string
	RecoveryKeyNonce     string
	RecoverySalt         []byte

	// Reset PIN gate.
	ResetPINHash      []byte
	ResetPINExpiresAt time.Time

	CreatedAt time.Time
}

// OneTimePrekey is one published OPK public half. Idx aligns the row with
// the private half at the same position inside the vault bundle.
type OneTimePrekey struct {
	ID        string
	UserID    string
	Idx       int
	PublicKey string
}
